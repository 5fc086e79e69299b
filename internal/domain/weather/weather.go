// Package weather holds the per-mission difficulty table.
// This package is PURE: randomness is injected, nothing here touches storage or network.
package weather

import (
	"errors"

	"github.com/MRamiBalles/FrostlineExpress/internal/platform/random"
)

// ErrEmptyTable is returned when a weather is requested from a table with no entries.
var ErrEmptyTable = errors.New("weather table is empty")

// Weather is a read-only difficulty profile drawn once per mission.
type Weather struct {
	Name string `json:"name" yaml:"name"`
	// DecisionMakingProbability is the base chance that a milestone raises an event.
	DecisionMakingProbability float64 `json:"decision_making_probability" yaml:"decisionMakingProbability"`
}

// Table lists weathers ordered from mildest to harshest. The position of a
// weather in the table is its difficulty index.
type Table struct {
	weathers []Weather
}

func NewTable(weathers []Weather) *Table {
	return &Table{weathers: append([]Weather(nil), weathers...)}
}

// Random picks a weather and returns it with its difficulty index.
func (t *Table) Random(src random.Source) (Weather, int, error) {
	if len(t.weathers) == 0 {
		return Weather{}, -1, ErrEmptyTable
	}
	idx := src.Intn(len(t.weathers))
	return t.weathers[idx], idx, nil
}

// IndexOf returns the difficulty index of a weather by name, or -1.
func (t *Table) IndexOf(name string) int {
	for i, w := range t.weathers {
		if w.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) All() []Weather {
	return append([]Weather(nil), t.weathers...)
}

func (t *Table) Len() int {
	return len(t.weathers)
}
