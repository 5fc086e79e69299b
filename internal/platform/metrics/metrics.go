// Package metrics provides observability for the mission server.
// Counters are kept twice: atomics for the built-in JSON/Prometheus pages and
// OpenTelemetry instruments for whatever MeterProvider the host installs.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"

// Collector gathers simulation and transport metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Journal metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// Mission metrics
	MissionsDeployed  int64
	MissionsCompleted int64
	MilestonesReached int64
	IntervalsSkipped  int64
	EventsRaised      int64
	Resolutions       int64
	PassengersBoarded int64
	PassengersLost    int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex

	otelTicks       metric.Int64Counter
	otelTickLatency metric.Float64Histogram
	otelJournal     metric.Int64Counter
	otelWS          metric.Int64Counter
}

var (
	collector     *Collector
	collectorOnce sync.Once
)

// Get returns the process-wide collector.
func Get() *Collector {
	collectorOnce.Do(func() {
		collector = New()
	})
	return collector
}

// New creates an independent collector. Instrument creation errors leave the
// otel side disabled; the atomic counters always work.
func New() *Collector {
	c := &Collector{StartTime: time.Now()}
	m := otel.Meter(instrumentationName)

	var err error
	if c.otelTicks, err = m.Int64Counter("frostline.ticks",
		metric.WithDescription("Simulation steps executed")); err != nil {
		c.otelTicks = nil
	}
	if c.otelTickLatency, err = m.Float64Histogram("frostline.tick.latency",
		metric.WithDescription("Simulation step latency"),
		metric.WithUnit("ms")); err != nil {
		c.otelTickLatency = nil
	}
	if c.otelJournal, err = m.Int64Counter("frostline.journal.events",
		metric.WithDescription("Mission journal entries by type")); err != nil {
		c.otelJournal = nil
	}
	if c.otelWS, err = m.Int64Counter("frostline.ws.messages",
		metric.WithDescription("WebSocket messages by direction")); err != nil {
		c.otelWS = nil
	}
	return c
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordTick records a simulation step.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()

	if c.otelTicks != nil {
		c.otelTicks.Add(context.Background(), 1)
	}
	if c.otelTickLatency != nil {
		c.otelTickLatency.Record(context.Background(), float64(latency)/1e6)
	}
}

// RecordEventWrite records a journal write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))
	storeMax(&c.EventWriteLatMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordJournal counts one mission journal entry by its type.
func (c *Collector) RecordJournal(eventType string) {
	switch eventType {
	case "MISSION_DEPLOYED":
		atomic.AddInt64(&c.MissionsDeployed, 1)
	case "MISSION_COMPLETED":
		atomic.AddInt64(&c.MissionsCompleted, 1)
	case "MILESTONE_REACHED":
		atomic.AddInt64(&c.MilestonesReached, 1)
	case "INTERVAL_SKIPPED":
		atomic.AddInt64(&c.IntervalsSkipped, 1)
	case "SUPPLY_USED", "CREW_USED", "EVENT_IGNORED", "EVENT_FINISHED", "EVENT_RESOLVED":
		atomic.AddInt64(&c.Resolutions, 1)
	case "PASSENGER_BOARDED":
		atomic.AddInt64(&c.PassengersBoarded, 1)
	case "PASSENGER_LOST":
		atomic.AddInt64(&c.PassengersLost, 1)
	}
	if c.otelJournal != nil {
		c.otelJournal.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("type", eventType)))
	}
}

// RecordEventRaised counts a milestone that suspended a mission.
func (c *Collector) RecordEventRaised() {
	atomic.AddInt64(&c.EventsRaised, 1)
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	direction := "out"
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
		direction = "in"
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
	if c.otelWS != nil {
		c.otelWS.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("direction", direction)))
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	lastTick := c.LastTickTime
	c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	var tickAvg, eventAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      lastTick.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"missions": map[string]interface{}{
			"deployed":           atomic.LoadInt64(&c.MissionsDeployed),
			"completed":          atomic.LoadInt64(&c.MissionsCompleted),
			"milestones":         atomic.LoadInt64(&c.MilestonesReached),
			"skips":              atomic.LoadInt64(&c.IntervalsSkipped),
			"events_raised":      atomic.LoadInt64(&c.EventsRaised),
			"resolutions":        atomic.LoadInt64(&c.Resolutions),
			"passengers_boarded": atomic.LoadInt64(&c.PassengersBoarded),
			"passengers_lost":    atomic.LoadInt64(&c.PassengersLost),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		_ = json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP frostline_%s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE frostline_%s counter\n", name)
			fmt.Fprintf(w, "frostline_%s %d\n\n", name, v)
		}

		counter("tick_count", "Total simulation steps", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP frostline_tick_latency_max_ms Maximum step latency\n")
		fmt.Fprintf(w, "# TYPE frostline_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "frostline_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		counter("events_written", "Total journal entries persisted", atomic.LoadInt64(&c.EventsWritten))
		counter("event_write_errors", "Total journal write errors", atomic.LoadInt64(&c.EventWriteErrors))

		counter("missions_deployed", "Missions deployed", atomic.LoadInt64(&c.MissionsDeployed))
		counter("missions_completed", "Missions completed", atomic.LoadInt64(&c.MissionsCompleted))
		counter("milestones_reached", "Milestones reached", atomic.LoadInt64(&c.MilestonesReached))
		counter("intervals_skipped", "Intervals skipped by fast trains", atomic.LoadInt64(&c.IntervalsSkipped))
		counter("events_raised", "Milestones that raised an event", atomic.LoadInt64(&c.EventsRaised))
		counter("resolutions", "Player resolution commands applied", atomic.LoadInt64(&c.Resolutions))
		counter("passengers_boarded", "Passengers rescued", atomic.LoadInt64(&c.PassengersBoarded))
		counter("passengers_lost", "Passengers lost", atomic.LoadInt64(&c.PassengersLost))

		fmt.Fprintf(w, "# HELP frostline_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE frostline_ws_connections gauge\n")
		fmt.Fprintf(w, "frostline_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP frostline_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE frostline_ws_messages_total counter\n")
		fmt.Fprintf(w, "frostline_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "frostline_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
