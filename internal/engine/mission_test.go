package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/crew"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/passenger"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/route"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/weather"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/random"
)

// Line used by every test: A -20- B -10- C -40- D.
func testStops() []route.Stop {
	return []route.Stop{
		{Name: "A", MilesToNextStop: 20},
		{Name: "B", MilesToNextStop: 10},
		{Name: "C", MilesToNextStop: 40},
		{Name: "D", MilesToNextStop: 0},
	}
}

type worldOpts struct {
	src      random.Source
	weathers []weather.Weather
	trains   []vehicle.Train
	crew     []crew.Member
}

func newTestWorld(t *testing.T, o worldOpts) *World {
	t.Helper()
	if o.src == nil {
		o.src = random.NewScript()
	}
	if o.weathers == nil {
		o.weathers = []weather.Weather{{Name: "Clear", DecisionMakingProbability: 0.4}}
	}
	if o.trains == nil {
		o.trains = []vehicle.Train{{Name: "Aurora", RouteStart: "A", RouteEnd: "B"}}
	}
	return &World{
		Random:   o.src,
		Routes:   route.NewTable(testStops()),
		Weathers: weather.NewTable(o.weathers),
		Vehicles: vehicle.NewRegistry(o.trains),
		Crew:     crew.NewRoster(o.crew),
		Balance:  DefaultBalance(),
		Journal:  events.NewEventLog(nil),
	}
}

func newDeployed(t *testing.T, w *World, kind Kind, r route.Route, train string, a Allotment) *Mission {
	t.Helper()
	m, err := NewMission(w, kind, r, train)
	require.NoError(t, err)
	require.NoError(t, m.Deploy(a))
	return m
}

func journalled(w *World, missionID string, typ events.EventType) []events.GameEvent {
	var out []events.GameEvent
	for _, e := range w.Journal.ByMission(missionID) {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestNewMission_DistanceFromRoute(t *testing.T) {
	w := newTestWorld(t, worldOpts{})

	m, err := NewMission(w, KindDelivery, route.Route{Start: "A", End: "C"}, "Aurora")
	require.NoError(t, err)
	assert.Equal(t, 30, m.InitialDistance())
	assert.Equal(t, 30, m.RemainingDistance())
	assert.Equal(t, StatePending, m.State())
	assert.Equal(t, "Clear", m.Weather.Name)

	_, err = NewMission(w, KindDelivery, route.Route{Start: "C", End: "A"}, "Aurora")
	assert.ErrorIs(t, err, route.ErrUnreachable)
}

func TestUpdate_NoOpUntilDeployed(t *testing.T) {
	w := newTestWorld(t, worldOpts{})
	m, err := NewMission(w, KindDelivery, route.Route{Start: "A", End: "B"}, "Aurora")
	require.NoError(t, err)

	m.Update(time.Second)
	assert.Equal(t, 20, m.RemainingDistance())
}

func TestUpdate_AccumulatesPartialMiles(t *testing.T) {
	w := newTestWorld(t, worldOpts{})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "A", End: "B"}, "Aurora", Allotment{})

	m.Update(60 * time.Millisecond)
	assert.Equal(t, 20, m.RemainingDistance())
	m.Update(60 * time.Millisecond)
	assert.Equal(t, 19, m.RemainingDistance())
	m.Update(380 * time.Millisecond)
	assert.Equal(t, 15, m.RemainingDistance(), "one slice can cover several miles")
}

func TestUpdate_MonotonicNonIncreasing(t *testing.T) {
	w := newTestWorld(t, worldOpts{
		src: random.NewSeeded(7),
		trains: []vehicle.Train{
			{Name: "Aurora", RouteStart: "A", RouteEnd: "D", SpeedLevel: 10},
		},
	})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "A", End: "D"}, "Aurora", Allotment{})

	last := m.RemainingDistance()
	for i := 0; i < 10000 && !m.IsCompleted(); i++ {
		if m.EventPending() {
			require.NoError(t, m.Resolve())
		}
		m.Update(time.Duration(i%7) * 45 * time.Millisecond)

		cur := m.RemainingDistance()
		require.LessOrEqual(t, cur, last)
		require.GreaterOrEqual(t, cur, 0)
		last = cur
	}
	assert.True(t, m.IsCompleted())
	assert.Zero(t, m.RemainingDistance())
	assert.False(t, m.EventPending())
}

func TestMilestones_FireOnIntervalBoundaries(t *testing.T) {
	w := newTestWorld(t, worldOpts{})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "A", End: "B"}, "Aurora", Allotment{})

	m.Update(5 * time.Second)

	var at []int
	for _, e := range journalled(w, m.ID, events.EventTypeMilestoneReached) {
		at = append(at, e.Payload.(DistancePayload).MilesRemaining)
	}
	assert.Equal(t, []int{15, 10, 5}, at)
	assert.True(t, m.IsCompleted())
}

func TestEndToEnd_EventSuspendsProgress(t *testing.T) {
	w := newTestWorld(t, worldOpts{
		weathers: []weather.Weather{{Name: "Whiteout", DecisionMakingProbability: 1.0}},
	})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "B", End: "C"}, "Aurora", Allotment{})
	require.Equal(t, 10, m.InitialDistance())

	m.Update(250 * time.Millisecond)
	assert.Equal(t, 8, m.RemainingDistance())
	assert.False(t, m.EventPending())

	m.Update(250 * time.Millisecond)
	assert.Equal(t, 5, m.RemainingDistance())
	assert.True(t, m.EventPending())
	assert.Equal(t, "event_pending", m.Phase())

	m.Update(10 * time.Second)
	assert.Equal(t, 5, m.RemainingDistance(), "no progress while an event is pending")

	require.NoError(t, m.Resolve())
	m.Update(10 * time.Second)
	assert.True(t, m.IsCompleted())
	assert.False(t, m.EventPending())
}

func TestSkip_CannotRepeatOnNextMilestone(t *testing.T) {
	script := random.NewScript()
	script.Default = true
	w := newTestWorld(t, worldOpts{
		src:      script,
		weathers: []weather.Weather{{Name: "Calm", DecisionMakingProbability: 0}},
		trains:   []vehicle.Train{{Name: "Comet", RouteStart: "C", RouteEnd: "D", SpeedLevel: 5}},
	})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "C", End: "D"}, "Comet", Allotment{})
	require.Equal(t, 40, m.InitialDistance())

	m.Update(time.Minute)

	var froms []int
	for _, e := range journalled(w, m.ID, events.EventTypeIntervalSkipped) {
		p := e.Payload.(SkipPayload)
		assert.Equal(t, p.From-5, p.To)
		froms = append(froms, p.From)
	}
	// Each skip lands on a milestone where the flag blocks a second skip and
	// is then cleared, so the next milestone may skip again.
	assert.Equal(t, []int{35, 25, 15, 5}, froms)
	assert.True(t, m.IsCompleted())
}

func TestSkip_FlagClearsOnIdleMilestone(t *testing.T) {
	// Milestone 15: event no, skip yes -> lands on 10: event no, skip blocked, reset.
	script := random.NewScript(false, true, false, true)
	w := newTestWorld(t, worldOpts{
		src:    script,
		trains: []vehicle.Train{{Name: "Comet", RouteStart: "A", RouteEnd: "B", SpeedLevel: 5}},
	})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "A", End: "B"}, "Comet", Allotment{})

	m.Update(500 * time.Millisecond)

	assert.Equal(t, 10, m.RemainingDistance())
	assert.False(t, m.SkippedLastInterval())
	assert.Empty(t, script.Outcomes, "the blocked skip still draws its sample")
}

func TestNoTrain_NoEventsOrSkips(t *testing.T) {
	w := newTestWorld(t, worldOpts{
		weathers: []weather.Weather{{Name: "Whiteout", DecisionMakingProbability: 1.0}},
	})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "A", End: "B"}, "", Allotment{})

	m.Update(5 * time.Second)
	assert.True(t, m.IsCompleted())
	assert.Empty(t, journalled(w, m.ID, events.EventTypeEventPendingChanged))
}

func TestDeploy_VehicleUniqueness(t *testing.T) {
	w := newTestWorld(t, worldOpts{})
	first, err := NewMission(w, KindRescue, route.Route{Start: "A", End: "B"}, "Aurora")
	require.NoError(t, err)
	second, err := NewMission(w, KindRescue, route.Route{Start: "A", End: "B"}, "Aurora")
	require.NoError(t, err)

	require.NoError(t, first.Deploy(Allotment{Supplies: 3, Crew: 2}))
	assert.Equal(t, 3, first.Rescue().Supplies)
	assert.Equal(t, 2, first.Rescue().Crew)

	err = second.Deploy(Allotment{Supplies: 5, Crew: 5})
	assert.ErrorIs(t, err, vehicle.ErrVehicleInUse)
	assert.Equal(t, StatePending, second.State())
	assert.Zero(t, second.Rescue().Supplies, "allotments are not captured on failure")

	first.Complete()
	require.NoError(t, second.Deploy(Allotment{Supplies: 5, Crew: 5}))
	assert.Equal(t, 5, second.Rescue().Supplies)
}

func TestDeploy_Guards(t *testing.T) {
	w := newTestWorld(t, worldOpts{})
	m, err := NewMission(w, KindRescue, route.Route{Start: "A", End: "B"}, "Aurora")
	require.NoError(t, err)

	assert.ErrorIs(t, m.Deploy(Allotment{Supplies: -1}), ErrInvalidAllotment)
	assert.False(t, w.Vehicles.InUse("Aurora"))

	require.NoError(t, m.Deploy(Allotment{}))
	assert.ErrorIs(t, m.Deploy(Allotment{}), ErrAlreadyDeployed)
}

func TestComplete_IdempotentAndReleasesTrain(t *testing.T) {
	w := newTestWorld(t, worldOpts{})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "A", End: "B"}, "Aurora", Allotment{})
	require.True(t, w.Vehicles.InUse("Aurora"))

	m.Complete()
	m.Complete()

	assert.True(t, m.IsCompleted())
	assert.False(t, w.Vehicles.InUse("Aurora"))
	assert.Equal(t, 40, m.Reward())
	assert.Len(t, journalled(w, m.ID, events.EventTypeMissionCompleted), 1)

	m.Update(time.Second)
	assert.Equal(t, 20, m.RemainingDistance(), "completed missions never move")
}

func TestComplete_RestingCrewRecovery(t *testing.T) {
	script := random.NewScript(true, false, true)
	w := newTestWorld(t, worldOpts{
		src: script,
		crew: []crew.Member{
			{ID: "c1", Name: "Ines", Status: passenger.StatusDeclining, Resting: true},
			{ID: "c2", Name: "Oskar", Status: passenger.StatusComfortable, Resting: true},
			{ID: "c3", Name: "Yuki", Status: passenger.StatusCritical, Resting: true},
			{ID: "c4", Name: "Pavel", Status: passenger.StatusCritical},
		},
	})
	m := newDeployed(t, w, KindDelivery, route.Route{Start: "A", End: "B"}, "Aurora", Allotment{})

	m.Complete()

	c1, _ := w.Crew.Get("c1")
	assert.Equal(t, passenger.StatusComfortable, c1.Status)
	assert.False(t, c1.Resting, "back at best status")

	c2, _ := w.Crew.Get("c2")
	assert.False(t, c2.Resting, "already comfortable stops resting without improving")

	c3, _ := w.Crew.Get("c3")
	assert.Equal(t, passenger.StatusDeclining, c3.Status)
	assert.True(t, c3.Resting)

	c4, _ := w.Crew.Get("c4")
	assert.Equal(t, passenger.StatusCritical, c4.Status, "working crew is not touched")

	assert.Len(t, journalled(w, m.ID, events.EventTypeCrewRecovered), 2)
	assert.Contains(t, script.Probabilities, 0.25)
}

func TestGenerateMission(t *testing.T) {
	script := random.NewScript()
	script.Picks = []int{1, 0, 0}
	w := newTestWorld(t, worldOpts{
		src: script,
		trains: []vehicle.Train{
			{Name: "Aurora", RouteStart: "A", RouteEnd: "B"},
			{Name: "Borealis", RouteStart: "B", RouteEnd: "D"},
		},
	})

	m, err := GenerateMission(w)
	require.NoError(t, err)
	assert.Equal(t, "Borealis", m.Train)
	assert.Equal(t, KindRescue, m.Kind)
	assert.Equal(t, route.Route{Start: "B", End: "D"}, m.Route)
	assert.Equal(t, 50, m.InitialDistance())

	_, err = GenerateMission(newTestWorld(t, worldOpts{trains: []vehicle.Train{}}))
	assert.ErrorIs(t, err, ErrNoTrains)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindRescue, KindDelivery} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("freight")
	assert.Error(t, err)
}
