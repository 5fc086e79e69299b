package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
)

var ErrNoJournal = errors.New("no journal for mission")

// Recapper rebuilds the story of a mission from its stored journal. The
// HTTP API serves it so a returning player can see what happened en route.
type Recapper struct {
	eventRepo EventRepository
}

// NewRecapper creates a recap builder over a journal repository.
func NewRecapper(eventRepo EventRepository) *Recapper {
	return &Recapper{eventRepo: eventRepo}
}

// RecapEvent is one line of the recap screen.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"`
	Impact    string `json:"impact"` // POSITIVE, NEGATIVE or NEUTRAL
}

// MissionRecap totals a mission's journal.
type MissionRecap struct {
	MissionID         string       `json:"mission_id"`
	Kind              string       `json:"kind"`
	Train             string       `json:"train"`
	Weather           string       `json:"weather"`
	InitialDistance   int          `json:"initial_distance"`
	MilesRemaining    int          `json:"miles_remaining"`
	Milestones        int          `json:"milestones"`
	Skips             int          `json:"skips"`
	EventsRaised      int          `json:"events_raised"`
	PassengersBoarded int          `json:"passengers_boarded"`
	PassengersLost    int          `json:"passengers_lost"`
	SuppliesUsed      int          `json:"supplies_used"`
	CrewUsed          int          `json:"crew_used"`
	Completed         bool         `json:"completed"`
	Reward            int          `json:"reward"`
	Events            []RecapEvent `json:"events"`
}

// Recap builds the recap for one mission.
func (r *Recapper) Recap(ctx context.Context, missionID string) (*MissionRecap, error) {
	records, err := r.eventRepo.GetByMissionID(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for mission: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoJournal, missionID)
	}

	recap := &MissionRecap{MissionID: missionID, Events: make([]RecapEvent, 0, len(records))}
	for _, rec := range records {
		summary, err := r.apply(recap, rec)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", rec.ID, err)
		}
		if summary == "" {
			continue
		}
		recap.Events = append(recap.Events, RecapEvent{
			Timestamp: rec.Timestamp.Format("15:04:05"),
			EventType: rec.EventType,
			Summary:   summary,
			Impact:    determineImpact(rec.EventType),
		})
	}
	return recap, nil
}

// apply folds one record into the totals and returns its recap line. An
// empty line means the event is bookkeeping only.
func (r *Recapper) apply(recap *MissionRecap, rec EventRecord) (string, error) {
	switch events.EventType(rec.EventType) {
	case events.EventTypeMissionCreated:
		var p engine.MissionCreatedPayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		recap.Kind, recap.Train, recap.Weather = p.Kind, p.Train, p.Weather
		recap.InitialDistance, recap.MilesRemaining = p.InitialDistance, p.InitialDistance
		return fmt.Sprintf("%s mission posted: %s to %s, %d miles in %s.", p.Kind, p.Start, p.End, p.InitialDistance, p.Weather), nil

	case events.EventTypeMissionDeployed:
		var p engine.DeployedPayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		recap.Train = p.Train
		return fmt.Sprintf("%s departed with %d supplies and %d crew.", p.Train, p.Supplies, p.Crew), nil

	case events.EventTypeMilestoneReached:
		var p engine.DistancePayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		recap.Milestones++
		recap.MilesRemaining = p.MilesRemaining
		return fmt.Sprintf("Milestone reached, %d miles to go.", p.MilesRemaining), nil

	case events.EventTypeIntervalSkipped:
		var p engine.SkipPayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		recap.Skips++
		recap.MilesRemaining = p.To
		return fmt.Sprintf("The train made good time and skipped ahead %d miles.", p.From-p.To), nil

	case events.EventTypeEventPendingChanged:
		var p engine.PendingPayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		if !p.Pending {
			return "", nil
		}
		recap.EventsRaised++
		return fmt.Sprintf("The train stopped for an event with %d miles to go.", p.MilesRemaining), nil

	case events.EventTypePassengerBoarded:
		recap.PassengersBoarded++
		return fmt.Sprintf("Passenger %s boarded.", rec.TargetID), nil

	case events.EventTypePassengerStatusChanged:
		var p engine.PassengerPayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		return fmt.Sprintf("Passenger %s went from %s to %s.", rec.TargetID, p.From, p.To), nil

	case events.EventTypePassengerLost:
		recap.PassengersLost++
		return fmt.Sprintf("Passenger %s was lost to the cold.", rec.TargetID), nil

	case events.EventTypeSupplyUsed:
		var p engine.ResourcePayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		recap.SuppliesUsed += p.Used
		return fmt.Sprintf("Handed out %d supplies, %d left.", p.Used, p.Remaining), nil

	case events.EventTypeCrewUsed:
		var p engine.ResourcePayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		recap.CrewUsed += p.Used
		return fmt.Sprintf("Crew tended to %d passengers, %d crew left.", p.Used, p.Remaining), nil

	case events.EventTypeEventIgnored:
		return "The crew ignored the event.", nil

	case events.EventTypeEventFinished, events.EventTypeEventResolved:
		return "The event was resolved and the train moved on.", nil

	case events.EventTypeMissionCompleted:
		var p engine.CompletedPayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		recap.Completed = true
		recap.MilesRemaining = 0
		recap.Reward = p.Reward
		return fmt.Sprintf("Arrived after %d miles with %d passengers. Reward: %d.", p.Miles, p.Passengers, p.Reward), nil

	case events.EventTypeCrewRecovered:
		var p engine.CrewRecoveredPayload
		if err := rec.Decode(&p); err != nil {
			return "", err
		}
		return fmt.Sprintf("Crew member %s recovered to %s.", rec.TargetID, p.Status), nil
	}
	return "", nil
}

// determineImpact classifies the event impact.
func determineImpact(eventType string) string {
	switch events.EventType(eventType) {
	case events.EventTypePassengerLost, events.EventTypeEventPendingChanged:
		return "NEGATIVE"
	case events.EventTypePassengerBoarded, events.EventTypeIntervalSkipped,
		events.EventTypeMissionCompleted, events.EventTypeCrewRecovered,
		events.EventTypeSupplyUsed, events.EventTypeCrewUsed:
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}
