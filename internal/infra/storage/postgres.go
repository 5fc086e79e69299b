package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MRamiBalles/FrostlineExpress/internal/config"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
)

// eventRow is the event_log table. Seq records insertion order and breaks
// timestamp ties.
type eventRow struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Seq       int64          `gorm:"autoIncrement;not null"`
	MissionID string         `gorm:"size:64;index:idx_event_log_mission"`
	Timestamp time.Time      `gorm:"type:timestamptz;NOT NULL;index:idx_event_log_mission"`
	EventType string         `gorm:"size:64;index"`
	TargetID  string         `gorm:"size:64"`
	Payload   datatypes.JSON `gorm:"type:jsonb;default:'null'"`
}

func (eventRow) TableName() string { return "event_log" }

// historyRow is the mission_history table.
type historyRow struct {
	MissionID       string    `gorm:"primaryKey;size:64"`
	Kind            string    `gorm:"size:16"`
	Train           string    `gorm:"size:127"`
	StartStop       string    `gorm:"size:127"`
	EndStop         string    `gorm:"size:127"`
	Weather         string    `gorm:"size:64"`
	InitialDistance int
	Passengers      int
	Reward          int
	CompletedAt     time.Time `gorm:"type:timestamptz;NOT NULL;index"`
}

func (historyRow) TableName() string { return "mission_history" }

// OpenPostgres connects with gorm and migrates both tables.
func OpenPostgres(cfg config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if err := db.AutoMigrate(&eventRow{}, &historyRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schemas: %w", err)
	}
	return db, nil
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *gorm.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Append inserts an event into the immutable ledger.
func (r *PostgresEventRepository) Append(ctx context.Context, event EventRecord) error {
	row := eventRow{
		ID:        event.ID,
		MissionID: event.MissionID,
		Timestamp: event.Timestamp,
		EventType: event.EventType,
		TargetID:  event.TargetID,
		Payload:   datatypes.JSON(event.Payload),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// GetByMissionID retrieves a mission's full journal.
func (r *PostgresEventRepository) GetByMissionID(ctx context.Context, missionID string) ([]EventRecord, error) {
	return r.queryEvents(ctx, r.db.Where("mission_id = ?", missionID))
}

// GetByEventType retrieves one mission's events of a given type.
func (r *PostgresEventRepository) GetByEventType(ctx context.Context, missionID, eventType string) ([]EventRecord, error) {
	return r.queryEvents(ctx, r.db.Where("mission_id = ? AND event_type = ?", missionID, eventType))
}

// orderedEvents sorts a journal query the way SQLite does with rowid.
func orderedEvents(q *gorm.DB) *gorm.DB {
	return q.Order("timestamp ASC").Order("seq ASC")
}

func (r *PostgresEventRepository) queryEvents(ctx context.Context, q *gorm.DB) ([]EventRecord, error) {
	var rows []eventRow
	if err := orderedEvents(q.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	out := make([]EventRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, EventRecord{
			ID:        row.ID,
			MissionID: row.MissionID,
			Timestamp: row.Timestamp,
			EventType: row.EventType,
			TargetID:  row.TargetID,
			Payload:   []byte(row.Payload),
		})
	}
	return out, nil
}

// PostgresHistoryRepository implements HistoryRepository using PostgreSQL.
type PostgresHistoryRepository struct {
	db *gorm.DB
}

func NewPostgresHistoryRepository(db *gorm.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

// RecordMission stores a summary; a repeated acknowledgement is ignored.
func (r *PostgresHistoryRepository) RecordMission(ctx context.Context, s engine.MissionSummary) error {
	row := historyRow{
		MissionID:       s.MissionID,
		Kind:            s.Kind,
		Train:           s.Train,
		StartStop:       s.Start,
		EndStop:         s.End,
		Weather:         s.Weather,
		InitialDistance: s.InitialDistance,
		Passengers:      s.Passengers,
		Reward:          s.Reward,
		CompletedAt:     s.CompletedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to record mission: %w", err)
	}
	return nil
}

// List returns the most recent missions first.
func (r *PostgresHistoryRepository) List(ctx context.Context, limit int) ([]engine.MissionSummary, error) {
	q := r.db.WithContext(ctx).Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []historyRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	out := make([]engine.MissionSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, engine.MissionSummary{
			MissionID:       row.MissionID,
			Kind:            row.Kind,
			Train:           row.Train,
			Start:           row.StartStop,
			End:             row.EndStop,
			Weather:         row.Weather,
			InitialDistance: row.InitialDistance,
			Passengers:      row.Passengers,
			Reward:          row.Reward,
			CompletedAt:     row.CompletedAt,
		})
	}
	return out, nil
}

var (
	_ EventRepository   = (*PostgresEventRepository)(nil)
	_ HistoryRepository = (*PostgresHistoryRepository)(nil)
)
