package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/FrostlineExpress/internal/config"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"
)

func openTestStore(t *testing.T) (*Store, *metrics.Collector) {
	t.Helper()
	m := metrics.New()
	s, err := Open(config.StorageConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "data", "frostline.db")},
	}, m)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, m
}

func TestSQLiteEvents_RoundTrip(t *testing.T) {
	s, m := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	journal := []events.GameEvent{
		{ID: "e1", MissionID: "m1", Timestamp: base, Type: events.EventTypeMissionDeployed, TargetID: "Aurora",
			Payload: engine.DeployedPayload{Train: "Aurora", Supplies: 2, Crew: 1}},
		{ID: "e2", MissionID: "m1", Timestamp: base.Add(time.Second), Type: events.EventTypeMilestoneReached,
			Payload: engine.DistancePayload{MilesRemaining: 15}},
		{ID: "e3", MissionID: "m2", Timestamp: base.Add(2 * time.Second), Type: events.EventTypeMilestoneReached,
			Payload: engine.DistancePayload{MilesRemaining: 5}},
		{ID: "e4", MissionID: "m1", Timestamp: base.Add(3 * time.Second), Type: events.EventTypeEventIgnored},
	}
	for _, e := range journal {
		require.NoError(t, s.Append(e))
	}

	got, err := s.Events.GetByMissionID(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"e1", "e2", "e4"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.True(t, base.Equal(got[0].Timestamp))
	assert.Equal(t, "Aurora", got[0].TargetID)

	var deployed engine.DeployedPayload
	require.NoError(t, got[0].Decode(&deployed))
	assert.Equal(t, 2, deployed.Supplies)

	var none map[string]any
	require.NoError(t, got[2].Decode(&none))
	assert.Nil(t, none)

	milestones, err := s.Events.GetByEventType(ctx, "m1", string(events.EventTypeMilestoneReached))
	require.NoError(t, err)
	require.Len(t, milestones, 1)
	assert.Equal(t, "e2", milestones[0].ID)

	assert.Equal(t, int64(4), m.EventsWritten)
	assert.Zero(t, m.EventWriteErrors)
}

func TestSQLiteEvents_DuplicateIDFails(t *testing.T) {
	s, m := openTestStore(t)
	e := events.GameEvent{ID: "dup", MissionID: "m1", Timestamp: time.Now(), Type: events.EventTypeEventIgnored}

	require.NoError(t, s.Append(e))
	assert.Error(t, s.Append(e))
	assert.Equal(t, int64(1), m.EventWriteErrors)
}

func TestSQLiteHistory_ListNewestFirst(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.RecordMission(engine.MissionSummary{
			MissionID:       id,
			Kind:            "rescue",
			Train:           "Aurora",
			Start:           "Harbor",
			End:             "Frostgate",
			Weather:         "Clear",
			InitialDistance: 20,
			Passengers:      i,
			Reward:          100 + i,
			CompletedAt:     base.Add(time.Duration(i) * time.Hour),
		}))
	}
	// Acknowledging twice keeps the first record.
	require.NoError(t, s.RecordMission(engine.MissionSummary{MissionID: "old", Kind: "delivery", CompletedAt: base}))

	all, err := s.History.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].MissionID)
	assert.Equal(t, "old", all[2].MissionID)
	assert.Equal(t, "rescue", all[2].Kind)
	assert.Equal(t, 102, all[0].Reward)
	assert.True(t, base.Add(2*time.Hour).Equal(all[0].CompletedAt))

	top, err := s.History.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.StorageConfig{Driver: "none"}, nil)
	assert.Error(t, err)
}

func TestStore_AsJournalPersister(t *testing.T) {
	s, _ := openTestStore(t)
	log := events.NewEventLog(s)

	var failures int
	log.OnPersistError(func(events.GameEvent, error) { failures++ })
	log.Append(events.GameEvent{MissionID: "m9", Type: events.EventTypeMissionCreated,
		Payload: engine.MissionCreatedPayload{Kind: "delivery", InitialDistance: 8}})
	log.Append(events.GameEvent{MissionID: "m9", Type: events.EventTypeEventResolved})
	log.Flush()

	got, err := s.Events.GetByMissionID(context.Background(), "m9")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Zero(t, failures)
}
