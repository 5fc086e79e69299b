// Package passenger defines the people carried aboard a rescue train.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package passenger

import (
	"fmt"
	"strings"
)

// Status is an ordered health scale. Lower is better.
type Status int

const (
	StatusComfortable Status = iota
	StatusDeclining
	StatusCritical
	StatusDeath
)

// Best and Worst bound the scale.
const (
	Best  = StatusComfortable
	Worst = StatusDeath
)

func (s Status) String() string {
	switch s {
	case StatusComfortable:
		return "Comfortable"
	case StatusDeclining:
		return "Declining"
	case StatusCritical:
		return "Critical"
	case StatusDeath:
		return "Death"
	default:
		return "Unknown"
	}
}

// Passenger is a rescued person whose health moves one step at a time.
type Passenger struct {
	ID       string `json:"id"`
	Status   Status `json:"status"`
	Selected bool   `json:"selected"` // picked by the player for the next resolution action
}

// New creates a passenger in the best health.
func New(id string) *Passenger {
	return &Passenger{ID: id, Status: StatusComfortable}
}

// MakeBetter moves the status one step towards Comfortable. Returns false at the bound.
func (p *Passenger) MakeBetter() bool {
	return Improve(&p.Status)
}

// MakeWorse moves the status one step towards Death. Returns false at the bound.
func (p *Passenger) MakeWorse() bool {
	return Worsen(&p.Status)
}

func (p *Passenger) IsDead() bool {
	return p.Status == StatusDeath
}

// Improve moves s one step towards Best. Shared with the crew roster, whose
// members use the same scale.
func Improve(s *Status) bool {
	if *s <= Best {
		return false
	}
	*s--
	return true
}

// Worsen moves s one step towards Worst.
func Worsen(s *Status) bool {
	if *s >= Worst {
		return false
	}
	*s++
	return true
}

// ParseStatus maps a status name (as produced by String) back to a Status.
func ParseStatus(name string) (Status, error) {
	for s := Best; s <= Worst; s++ {
		if strings.EqualFold(s.String(), name) {
			return s, nil
		}
	}
	return Best, fmt.Errorf("unknown passenger status %q", name)
}
