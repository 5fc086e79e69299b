package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/MRamiBalles/FrostlineExpress/internal/config"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"
)

// WriteTimeout bounds a single write-through from the journal.
const WriteTimeout = 5 * time.Second

// Store pairs the repositories of one backend and adapts them to the
// engine's persistence hooks.
type Store struct {
	Events  EventRepository
	History HistoryRepository

	closer  io.Closer
	metrics *metrics.Collector
}

// NewStore wraps repositories. closer may be nil.
func NewStore(ev EventRepository, hist HistoryRepository, closer io.Closer, m *metrics.Collector) *Store {
	return &Store{Events: ev, History: hist, closer: closer, metrics: m}
}

// Open connects the backend selected by cfg.Driver.
func Open(cfg config.StorageConfig, m *metrics.Collector) (*Store, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := InitSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return NewStore(NewSQLiteEventRepository(db), NewSQLiteHistoryRepository(db), db, m), nil
	case "postgres":
		db, err := OpenPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		return NewStore(NewPostgresEventRepository(db), NewPostgresHistoryRepository(db), sqlDB, m), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Append implements events.EventPersister.
func (s *Store) Append(e events.GameEvent) error {
	start := time.Now()
	rec, err := NewEventRecord(e)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
		err = s.Events.Append(ctx, rec)
		cancel()
	}
	if s.metrics != nil {
		s.metrics.RecordEventWrite(time.Since(start), err)
	}
	return err
}

// RecordMission implements engine.HistoryRecorder.
func (s *Store) RecordMission(summary engine.MissionSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
	defer cancel()
	return s.History.RecordMission(ctx, summary)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

var (
	_ events.EventPersister  = (*Store)(nil)
	_ engine.HistoryRecorder = (*Store)(nil)
)
