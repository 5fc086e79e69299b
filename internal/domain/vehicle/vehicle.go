// Package vehicle defines the trains and the registry that keeps each train
// on at most one active mission.
// This package is PURE and must NOT import any infrastructure packages.
package vehicle

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	// MaxLevel caps every upgradable attribute.
	MaxLevel = 10
	// PercentPerLevel converts an attribute level into a percentage bonus.
	PercentPerLevel = 2
)

var (
	ErrUnknownVehicle = errors.New("unknown vehicle")
	// ErrVehicleInUse is an invariant violation: two active missions may not share a train.
	ErrVehicleInUse = errors.New("vehicle already assigned to an active mission")
	ErrMaxLevel     = errors.New("attribute already at max level")
	ErrUnknownAttr  = errors.New("unknown upgrade attribute")
)

// Attribute names an upgradable train property.
type Attribute string

const (
	AttributeWarmth Attribute = "warmth"
	AttributeSpeed  Attribute = "speed"
)

// Train is a vehicle that can be sent on missions.
type Train struct {
	Name        string `json:"name" yaml:"name"`
	RouteStart  string `json:"route_start" yaml:"routeStart"`
	RouteEnd    string `json:"route_end" yaml:"routeEnd"`
	WarmthLevel int    `json:"warmth_level" yaml:"warmthLevel"`
	SpeedLevel  int    `json:"speed_level" yaml:"speedLevel"`
}

// WarmthLevelPercent lowers the chance of an event at each milestone.
func (t Train) WarmthLevelPercent() int {
	return t.WarmthLevel * PercentPerLevel
}

// SpeedLevelPercent is the chance of skipping an interval at a milestone.
func (t Train) SpeedLevelPercent() int {
	return t.SpeedLevel * PercentPerLevel
}

// Level returns the current level of an attribute.
func (t Train) Level(attr Attribute) (int, error) {
	switch attr {
	case AttributeWarmth:
		return t.WarmthLevel, nil
	case AttributeSpeed:
		return t.SpeedLevel, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownAttr, attr)
	}
}

// Registry is the train roster plus the active assignment of each train.
type Registry struct {
	mu          sync.RWMutex
	trains      map[string]*Train
	assignments map[string]string // train name -> mission ID
}

func NewRegistry(trains []Train) *Registry {
	r := &Registry{
		trains:      make(map[string]*Train, len(trains)),
		assignments: make(map[string]string),
	}
	for i := range trains {
		t := trains[i]
		r.trains[t.Name] = &t
	}
	return r
}

// Get returns a copy of the named train.
func (r *Registry) Get(name string) (Train, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trains[name]
	if !ok {
		return Train{}, fmt.Errorf("%w: %s", ErrUnknownVehicle, name)
	}
	return *t, nil
}

// All returns the trains sorted by name.
func (r *Registry) All() []Train {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Train, 0, len(r.trains))
	for _, t := range r.trains {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// InUse reports whether a train is assigned to an active mission.
func (r *Registry) InUse(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.assignments[name]
	return ok
}

// Assign reserves a train for a mission. Reassigning to the same mission is a no-op.
func (r *Registry) Assign(name, missionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trains[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVehicle, name)
	}
	if owner, ok := r.assignments[name]; ok && owner != missionID {
		return fmt.Errorf("%w: %s is on mission %s", ErrVehicleInUse, name, owner)
	}
	r.assignments[name] = missionID
	return nil
}

// Release frees a train if it is held by the given mission.
func (r *Registry) Release(name, missionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assignments[name] == missionID {
		delete(r.assignments, name)
	}
}

// Upgrade raises an attribute by one level and returns the new level.
func (r *Registry) Upgrade(name string, attr Attribute) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trains[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVehicle, name)
	}
	var level *int
	switch attr {
	case AttributeWarmth:
		level = &t.WarmthLevel
	case AttributeSpeed:
		level = &t.SpeedLevel
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownAttr, attr)
	}
	if *level >= MaxLevel {
		return *level, ErrMaxLevel
	}
	*level++
	return *level, nil
}
