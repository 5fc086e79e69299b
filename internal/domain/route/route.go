// Package route describes the rail line as an ordered list of stops.
// This package is PURE and must NOT import any infrastructure packages.
package route

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStop = errors.New("unknown stop")
	// ErrUnreachable is returned when the end stop does not come after the start on the line.
	ErrUnreachable = errors.New("end stop is not reachable from start")
	ErrNotAdjacent = errors.New("stops are not adjacent")
)

// Stop is a station on the line and the miles to the following station.
type Stop struct {
	Name            string `json:"name" yaml:"name"`
	MilesToNextStop int    `json:"miles_to_next_stop" yaml:"milesToNextStop"`
}

// Route is a start/end pair of stop names.
type Route struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Table is the per-segment lookup over the line.
type Table struct {
	stops []Stop
	index map[string]int
}

func NewTable(stops []Stop) *Table {
	t := &Table{
		stops: append([]Stop(nil), stops...),
		index: make(map[string]int, len(stops)),
	}
	for i, s := range t.stops {
		t.index[s.Name] = i
	}
	return t
}

func (t *Table) position(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownStop, name)
	}
	return i, nil
}

// SegmentDistance returns the miles between two adjacent stops.
func (t *Table) SegmentDistance(from, to string) (int, error) {
	i, err := t.position(from)
	if err != nil {
		return 0, err
	}
	j, err := t.position(to)
	if err != nil {
		return 0, err
	}
	if j != i+1 {
		return 0, fmt.Errorf("%w: %s -> %s", ErrNotAdjacent, from, to)
	}
	return t.stops[i].MilesToNextStop, nil
}

// LocationsBetween returns the stops from start to end, both included.
func (t *Table) LocationsBetween(start, end string) ([]string, error) {
	i, err := t.position(start)
	if err != nil {
		return nil, err
	}
	j, err := t.position(end)
	if err != nil {
		return nil, err
	}
	if j <= i {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnreachable, start, end)
	}
	names := make([]string, 0, j-i+1)
	for k := i; k <= j; k++ {
		names = append(names, t.stops[k].Name)
	}
	return names, nil
}

// Distance sums the segment distances along the line from start to end.
func (t *Table) Distance(r Route) (int, error) {
	stops, err := t.LocationsBetween(r.Start, r.End)
	if err != nil {
		return 0, err
	}
	total := 0
	for k := 0; k+1 < len(stops); k++ {
		miles, err := t.SegmentDistance(stops[k], stops[k+1])
		if err != nil {
			return 0, err
		}
		total += miles
	}
	return total, nil
}

func (t *Table) Stops() []Stop {
	return append([]Stop(nil), t.stops...)
}
