package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MRamiBalles/FrostlineExpress/internal/platform/logger"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"
)

// DefaultTickRate is how often the simulation steps in real time.
const DefaultTickRate = 50 * time.Millisecond

// Stepper advances the simulation by a slice of simulated time.
type Stepper interface {
	Step(dt time.Duration)
}

// Ticker manages the simulation heartbeat.
// It does NOT know about missions - only time progression.
type Ticker struct {
	stepper    Stepper
	rate       time.Duration
	logger     *logger.Logger
	metrics    *metrics.Collector
	tickNumber atomic.Int64
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewTicker creates a ticker that steps s by rate every rate.
func NewTicker(s Stepper, rate time.Duration, log *logger.Logger, m *metrics.Collector) *Ticker {
	if rate <= 0 {
		rate = DefaultTickRate
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Ticker{
		stepper:  s,
		rate:     rate,
		logger:   log,
		metrics:  m,
		stopChan: make(chan struct{}),
	}
}

// Start begins the loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Engine ticker started.")

	ticker := time.NewTicker(t.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Engine ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Engine ticker stopped manually.")
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// Stop gracefully stops the ticker. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

func (t *Ticker) tick() {
	t.tickNumber.Add(1)
	start := time.Now()
	t.stepper.Step(t.rate)
	if t.metrics != nil {
		t.metrics.RecordTick(time.Since(start))
	}
}

// TickNumber returns the ticks processed so far.
func (t *Ticker) TickNumber() int64 {
	return t.tickNumber.Load()
}
