package random

import "sync"

// Script is a deterministic Source for tests and replays.
// ShouldOccur pops queued outcomes and falls back to Default once they run out;
// p <= 0 and p >= 1 are still honoured without consuming an outcome.
type Script struct {
	mu       sync.Mutex
	Outcomes []bool
	Default  bool
	Picks    []int
	// Probabilities records every p passed to ShouldOccur, including clamped ones.
	Probabilities []float64
}

// NewScript queues outcomes for successive ShouldOccur calls.
func NewScript(outcomes ...bool) *Script {
	return &Script{Outcomes: outcomes}
}

func (s *Script) ShouldOccur(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Probabilities = append(s.Probabilities, p)
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	if len(s.Outcomes) == 0 {
		return s.Default
	}
	next := s.Outcomes[0]
	s.Outcomes = s.Outcomes[1:]
	return next
}

func (s *Script) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Picks) == 0 {
		return 0
	}
	next := s.Picks[0]
	s.Picks = s.Picks[1:]
	if next < 0 || next >= n {
		return 0
	}
	return next
}

// Push appends more outcomes to the queue.
func (s *Script) Push(outcomes ...bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Outcomes = append(s.Outcomes, outcomes...)
}
