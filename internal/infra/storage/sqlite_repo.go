package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event EventRecord) error {
	payload := string(event.Payload)
	if payload == "" {
		payload = "null"
	}

	query := `
		INSERT INTO events (id, mission_id, timestamp, event_type, target_id, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.MissionID, event.Timestamp.UTC(), event.EventType, event.TargetID, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]EventRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var e EventRecord
		var payload string
		if err := rows.Scan(&e.ID, &e.MissionID, &e.Timestamp, &e.EventType, &e.TargetID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteEventRepository) GetByMissionID(ctx context.Context, missionID string) ([]EventRecord, error) {
	query := `SELECT id, mission_id, timestamp, event_type, target_id, payload FROM events WHERE mission_id = ? ORDER BY timestamp ASC, rowid ASC`
	return r.getMany(ctx, query, missionID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, missionID, eventType string) ([]EventRecord, error) {
	query := `SELECT id, mission_id, timestamp, event_type, target_id, payload FROM events WHERE mission_id = ? AND event_type = ? ORDER BY timestamp ASC, rowid ASC`
	return r.getMany(ctx, query, missionID, eventType)
}

// ---------------------------------------------------------
// SQLiteHistoryRepository
// ---------------------------------------------------------

type SQLiteHistoryRepository struct {
	db *sql.DB
}

func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

func (r *SQLiteHistoryRepository) RecordMission(ctx context.Context, s engine.MissionSummary) error {
	query := `
		INSERT INTO mission_history (mission_id, kind, train, start_stop, end_stop, weather, initial_distance, passengers, reward, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mission_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		s.MissionID, s.Kind, s.Train, s.Start, s.End, s.Weather,
		s.InitialDistance, s.Passengers, s.Reward, s.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record mission: %w", err)
	}
	return nil
}

func (r *SQLiteHistoryRepository) List(ctx context.Context, limit int) ([]engine.MissionSummary, error) {
	query := `SELECT mission_id, kind, train, start_stop, end_stop, weather, initial_distance, passengers, reward, completed_at FROM mission_history ORDER BY completed_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []engine.MissionSummary
	for rows.Next() {
		var s engine.MissionSummary
		if err := rows.Scan(&s.MissionID, &s.Kind, &s.Train, &s.Start, &s.End, &s.Weather,
			&s.InitialDistance, &s.Passengers, &s.Reward, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var (
	_ EventRepository   = (*SQLiteEventRepository)(nil)
	_ HistoryRepository = (*SQLiteHistoryRepository)(nil)
)
