// Package storage persists the mission journal and the history of
// acknowledged missions. The engine only sees events.EventPersister and
// engine.HistoryRecorder; the backends live here.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
)

// EventRecord is a journal entry as stored. The payload stays encoded.
type EventRecord struct {
	ID        string          `json:"id" db:"id"`
	MissionID string          `json:"mission_id" db:"mission_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	EventType string          `json:"event_type" db:"event_type"`
	TargetID  string          `json:"target_id" db:"target_id"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
}

// EventRepository defines the interface for journal persistence.
type EventRepository interface {
	// Append adds an event to the immutable ledger.
	Append(ctx context.Context, event EventRecord) error

	// GetByMissionID retrieves all events of one mission, oldest first.
	GetByMissionID(ctx context.Context, missionID string) ([]EventRecord, error)

	// GetByEventType retrieves one mission's events of a given type.
	GetByEventType(ctx context.Context, missionID, eventType string) ([]EventRecord, error)
}

// HistoryRepository stores acknowledged missions.
type HistoryRepository interface {
	RecordMission(ctx context.Context, summary engine.MissionSummary) error

	// List returns the most recent missions first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]engine.MissionSummary, error)
}

// NewEventRecord encodes a journal event for storage.
func NewEventRecord(e events.GameEvent) (EventRecord, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return EventRecord{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return EventRecord{
		ID:        e.ID,
		MissionID: e.MissionID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		TargetID:  e.TargetID,
		Payload:   payload,
	}, nil
}

// Decode unmarshals the stored payload into v.
func (r EventRecord) Decode(v interface{}) error {
	if len(r.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(r.Payload, v)
}
