package engine

import (
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/crew"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/route"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/weather"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/logger"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/random"
)

// World is everything a mission consults besides its own state. It is built
// once by the host and handed to every mission; nothing is looked up globally.
type World struct {
	Random   random.Source
	Routes   *route.Table
	Weathers *weather.Table
	Vehicles *vehicle.Registry
	Crew     *crew.Roster
	Balance  Balance

	// Optional sinks.
	Log     *logger.Logger
	Journal *events.EventLog
	Metrics *metrics.Collector
}

// normalize fills optional collaborators so callers never nil-check.
func (w *World) normalize() {
	w.Balance = w.Balance.withDefaults()
	if w.Log == nil {
		w.Log = logger.Nop()
	}
	if w.Crew == nil {
		w.Crew = crew.NewRoster(nil)
	}
	if w.Vehicles == nil {
		w.Vehicles = vehicle.NewRegistry(nil)
	}
}

// emit journals a mission transition and counts it.
func (w *World) emit(missionID string, typ events.EventType, targetID string, payload interface{}) {
	if w.Journal != nil {
		w.Journal.Append(events.GameEvent{
			Type:      typ,
			MissionID: missionID,
			TargetID:  targetID,
			Payload:   payload,
		})
	}
	if w.Metrics != nil {
		w.Metrics.RecordJournal(string(typ))
	}
}
