package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/route"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/random"
)

type memoryHistory struct {
	mu      sync.Mutex
	records []MissionSummary
	err     error
}

func (h *memoryHistory) RecordMission(s MissionSummary) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, s)
	return h.err
}

func newTestEngine(t *testing.T, o worldOpts) (*Engine, *World) {
	t.Helper()
	w := newTestWorld(t, o)
	return NewEngine(w), w
}

func TestRefillPending_FillsSlots(t *testing.T) {
	e, _ := newTestEngine(t, worldOpts{})

	require.NoError(t, e.RefillPending())
	assert.Len(t, e.Pending(), DefaultBalance().PendingSlots)

	require.NoError(t, e.RefillPending())
	assert.Len(t, e.Pending(), DefaultBalance().PendingSlots, "already full")
}

func TestDeploy_MovesMissionAndRefills(t *testing.T) {
	e, w := newTestEngine(t, worldOpts{})
	require.NoError(t, e.RefillPending())
	id := e.Pending()[0].ID

	require.NoError(t, e.Deploy(id, Allotment{Supplies: 2, Crew: 1}))

	deployed := e.Deployed()
	require.Len(t, deployed, 1)
	assert.Equal(t, id, deployed[0].ID)
	assert.Equal(t, "progressing", deployed[0].Phase)
	assert.Equal(t, 2, deployed[0].Supplies)
	assert.Len(t, e.Pending(), w.Balance.PendingSlots)

	assert.ErrorIs(t, e.Deploy(id, Allotment{}), ErrAlreadyDeployed)
	assert.ErrorIs(t, e.Deploy("nope", Allotment{}), ErrUnknownMission)
}

func TestDeploy_SharedTrainRejected(t *testing.T) {
	e, _ := newTestEngine(t, worldOpts{})
	require.NoError(t, e.RefillPending())
	pending := e.Pending()
	require.Equal(t, pending[0].Train, pending[1].Train)

	require.NoError(t, e.Deploy(pending[0].ID, Allotment{}))
	err := e.Deploy(pending[1].ID, Allotment{Supplies: 4})

	assert.ErrorIs(t, err, vehicle.ErrVehicleInUse)
	view, err := e.Mission(pending[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", view.Phase)
	assert.Zero(t, view.Supplies)
}

func TestCommands_RouteToDeployedMission(t *testing.T) {
	e, _ := newTestEngine(t, worldOpts{})
	require.NoError(t, e.RefillPending())
	id := e.Pending()[0].ID

	assert.ErrorIs(t, e.UseSupply(id), ErrNotDeployed)
	assert.ErrorIs(t, e.Ignore("missing"), ErrUnknownMission)

	require.NoError(t, e.Deploy(id, Allotment{}))
	assert.ErrorIs(t, e.UseSupply(id), ErrNoPendingEvent)
	assert.ErrorIs(t, e.UseCrew(id), ErrNoPendingEvent)
	assert.ErrorIs(t, e.Finish(id), ErrNoPendingEvent)
	assert.ErrorIs(t, e.Resolve(id), ErrWrongKind)
	assert.ErrorIs(t, e.SelectPassenger(id, "ghost", true), ErrUnknownPassenger)
}

func TestStepAndAcknowledge(t *testing.T) {
	e, w := newTestEngine(t, worldOpts{})
	hist := &memoryHistory{}
	e.SetHistory(hist)

	m, err := NewMission(w, KindDelivery, route.Route{Start: "A", End: "B"}, "Aurora")
	require.NoError(t, err)
	e.AddPending(m)
	require.NoError(t, e.Deploy(m.ID, Allotment{}))

	_, err = e.Acknowledge(m.ID)
	assert.ErrorIs(t, err, ErrNotCompleted)

	for i := 0; i < 100; i++ {
		e.Step(100 * time.Millisecond)
	}
	view, err := e.Mission(m.ID)
	require.NoError(t, err)
	require.True(t, view.Completed)

	summary, err := e.Acknowledge(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, summary.Reward)
	assert.Equal(t, 40, e.Payments())
	assert.Empty(t, e.Deployed())
	require.Len(t, hist.records, 1)
	assert.Equal(t, m.ID, hist.records[0].MissionID)
	assert.Len(t, w.Journal.ByType(events.EventTypeMissionAcknowledged), 1)

	_, err = e.Acknowledge(m.ID)
	assert.ErrorIs(t, err, ErrUnknownMission)
}

func TestAcknowledge_HistoryFailureIsNotFatal(t *testing.T) {
	e, w := newTestEngine(t, worldOpts{})
	e.SetHistory(&memoryHistory{err: errors.New("db down")})

	m := newDeployed(t, w, KindDelivery, route.Route{Start: "A", End: "B"}, "Aurora", Allotment{})
	e.mu.Lock()
	e.deployed = append(e.deployed, m)
	e.mu.Unlock()
	m.Complete()

	_, err := e.Acknowledge(m.ID)
	assert.NoError(t, err)
	assert.Equal(t, 40, e.Payments())
}

func TestUpgradeTrain(t *testing.T) {
	w := newTestWorld(t, worldOpts{})
	w.Balance.StartingPayments = 215
	e := NewEngine(w)

	level, err := e.UpgradeTrain("Aurora", vehicle.AttributeSpeed)
	require.NoError(t, err)
	assert.Equal(t, 1, level)
	assert.Equal(t, 115, e.Payments(), "first level costs the base price")

	level, err = e.UpgradeTrain("Aurora", vehicle.AttributeSpeed)
	require.NoError(t, err)
	assert.Equal(t, 2, level)
	assert.Equal(t, 15, e.Payments())

	_, err = e.UpgradeTrain("Aurora", vehicle.AttributeSpeed)
	assert.ErrorIs(t, err, ErrInsufficientPayments)
	train, _ := w.Vehicles.Get("Aurora")
	assert.Equal(t, 2, train.SpeedLevel, "nothing bought on failure")

	_, err = e.UpgradeTrain("Aurora", vehicle.Attribute("armor"))
	assert.ErrorIs(t, err, vehicle.ErrUnknownAttr)
	_, err = e.UpgradeTrain("Ghost", vehicle.AttributeWarmth)
	assert.ErrorIs(t, err, vehicle.ErrUnknownVehicle)
}

func TestUpgradeTrain_MaxLevel(t *testing.T) {
	w := newTestWorld(t, worldOpts{
		trains: []vehicle.Train{{Name: "Aurora", RouteStart: "A", RouteEnd: "B", WarmthLevel: vehicle.MaxLevel}},
	})
	w.Balance.StartingPayments = 10000
	e := NewEngine(w)

	_, err := e.UpgradeTrain("Aurora", vehicle.AttributeWarmth)
	assert.ErrorIs(t, err, ErrMaxLevel)
	assert.Equal(t, 10000, e.Payments())
}

func TestSnapshot(t *testing.T) {
	e, _ := newTestEngine(t, worldOpts{})
	require.NoError(t, e.RefillPending())

	s := e.Snapshot()
	assert.Len(t, s.Pending, 5)
	assert.Empty(t, s.Deployed)
	require.Len(t, s.Trains, 1)
	assert.Equal(t, "Aurora", s.Trains[0].Name)
}

func TestEngine_ConcurrentCommandsAndSteps(t *testing.T) {
	w := newTestWorld(t, worldOpts{src: random.NewSeeded(3)})
	e := NewEngine(w)
	require.NoError(t, e.RefillPending())
	require.NoError(t, e.Deploy(e.Pending()[0].ID, Allotment{Supplies: 10, Crew: 10}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			e.Step(20 * time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, m := range e.Deployed() {
				_ = e.Ignore(m.ID)
			}
			_ = e.Snapshot()
		}
	}()
	wg.Wait()
}

type countingStepper struct {
	steps atomic.Int64
}

func (c *countingStepper) Step(time.Duration) { c.steps.Add(1) }

func TestTicker_StepsUntilCancelled(t *testing.T) {
	s := &countingStepper{}
	m := metrics.New()
	tk := NewTicker(s, time.Millisecond, nil, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.steps.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, s.steps.Load(), tk.TickNumber())
	assert.GreaterOrEqual(t, atomic.LoadInt64(&m.TickCount), int64(3))
}

func TestTicker_StopIsIdempotent(t *testing.T) {
	tk := NewTicker(&countingStepper{}, time.Millisecond, nil, nil)
	done := make(chan struct{})
	go func() {
		tk.Start(context.Background())
		close(done)
	}()

	tk.Stop()
	tk.Stop()
	<-done
}
