// Package crew defines the train crew roster. Crew members share the
// passenger health scale and rest between missions to recover.
// This package is PURE and must NOT import any infrastructure packages.
package crew

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/passenger"
)

var ErrUnknownMember = errors.New("unknown crew member")

// Member is one crew member.
type Member struct {
	ID      string           `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Status  passenger.Status `json:"status" yaml:"status"`
	Resting bool             `json:"resting" yaml:"resting"`
}

// MakeBetter improves the member's status one step.
func (m *Member) MakeBetter() bool {
	return passenger.Improve(&m.Status)
}

// Roster holds every crew member. Mutation goes through Update so callers
// never hold a pointer across the lock.
type Roster struct {
	mu      sync.Mutex
	members map[string]*Member
}

func NewRoster(members []Member) *Roster {
	r := &Roster{members: make(map[string]*Member, len(members))}
	for i := range members {
		m := members[i]
		r.members[m.ID] = &m
	}
	return r
}

// All returns copies of every member sorted by ID.
func (r *Roster) All() []Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resting returns the IDs of resting members sorted by ID.
func (r *Roster) Resting() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0)
	for id, m := range r.members {
		if m.Resting {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *Roster) Get(id string) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return Member{}, fmt.Errorf("%w: %s", ErrUnknownMember, id)
	}
	return *m, nil
}

// Update applies fn to a member under the roster lock.
func (r *Roster) Update(id string, fn func(m *Member)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMember, id)
	}
	fn(m)
	return nil
}
