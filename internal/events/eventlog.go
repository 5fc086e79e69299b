// Package events provides the mission journal: an append-only log of every
// state transition the simulation makes. UIs follow it to show and hide
// resolution controls; storage persists it for recaps.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeMissionCreated         EventType = "MISSION_CREATED"
	EventTypeMissionDeployed        EventType = "MISSION_DEPLOYED"
	EventTypeMilestoneReached       EventType = "MILESTONE_REACHED"
	EventTypeIntervalSkipped        EventType = "INTERVAL_SKIPPED"
	EventTypeEventPendingChanged    EventType = "EVENT_PENDING_CHANGED"
	EventTypePassengerBoarded       EventType = "PASSENGER_BOARDED"
	EventTypePassengerStatusChanged EventType = "PASSENGER_STATUS_CHANGED"
	EventTypePassengerLost          EventType = "PASSENGER_LOST"
	EventTypeSupplyUsed             EventType = "SUPPLY_USED"
	EventTypeCrewUsed               EventType = "CREW_USED"
	EventTypeEventIgnored           EventType = "EVENT_IGNORED"
	EventTypeEventFinished          EventType = "EVENT_FINISHED"
	EventTypeEventResolved          EventType = "EVENT_RESOLVED"
	EventTypeMissionCompleted       EventType = "MISSION_COMPLETED"
	EventTypeMissionAcknowledged    EventType = "MISSION_ACKNOWLEDGED"
	EventTypeCrewRecovered          EventType = "CREW_RECOVERED"
	EventTypeTrainUpgraded          EventType = "TRAIN_UPGRADED"
)

// GameEvent represents an immutable record of a mission transition.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	MissionID string      `json:"mission_id"`
	TargetID  string      `json:"target_id"` // passenger, crew member or train (optional)
	Payload   interface{} `json:"payload"`   // Event-specific data
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// ErrorHandler receives persistence failures, which never block the simulation.
type ErrorHandler func(event GameEvent, err error)

// EventLog is the in-memory append-only log of game events.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
	onError   ErrorHandler
	wg        sync.WaitGroup
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// OnPersistError installs a handler for write-through failures.
func (el *EventLog) OnPersistError(h ErrorHandler) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.onError = h
}

// Append adds a new event to the log, filling ID and Timestamp when empty.
// Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	persister, onError := el.persister, el.onError
	el.mu.Unlock()

	if persister != nil {
		// Write through off the simulation goroutine.
		el.wg.Add(1)
		go func(e GameEvent) {
			defer el.wg.Done()
			if err := persister.Append(e); err != nil && onError != nil {
				onError(e, err)
			}
		}(event)
	}
	return event
}

// Flush waits for pending write-through calls.
func (el *EventLog) Flush() {
	el.wg.Wait()
}

// ByMission returns all events of one mission.
func (el *EventLog) ByMission(missionID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.MissionID == missionID {
			result = append(result, e)
		}
	}
	return result
}

// ByType returns all events of one type.
func (el *EventLog) ByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Since returns the events appended after the first offset entries, and the new offset.
// Followers (the websocket hub) poll with it. An offset past the end yields nothing.
func (el *EventLog) Since(offset int) ([]GameEvent, int) {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset > len(el.events) {
		offset = len(el.events)
	}
	out := make([]GameEvent, len(el.events)-offset)
	copy(out, el.events[offset:])
	return out, len(el.events)
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
