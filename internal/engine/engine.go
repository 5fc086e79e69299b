package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/crew"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/passenger"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/route"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/rules"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
)

// MissionSummary is what remains of a mission once the player acknowledges it.
type MissionSummary struct {
	MissionID       string    `json:"mission_id"`
	Kind            string    `json:"kind"`
	Train           string    `json:"train"`
	Start           string    `json:"start"`
	End             string    `json:"end"`
	Weather         string    `json:"weather"`
	InitialDistance int       `json:"initial_distance"`
	Passengers      int       `json:"passengers"`
	Reward          int       `json:"reward"`
	CompletedAt     time.Time `json:"completed_at"`
}

// HistoryRecorder stores acknowledged missions.
type HistoryRecorder interface {
	RecordMission(s MissionSummary) error
}

// MissionView is a read-only copy of a mission for transport and display.
type MissionView struct {
	ID                string                `json:"id"`
	Kind              string                `json:"kind"`
	Phase             string                `json:"phase"`
	Train             string                `json:"train"`
	Route             route.Route           `json:"route"`
	Weather           string                `json:"weather"`
	WeatherIndex      int                   `json:"weather_index"`
	EventChance       float64               `json:"event_chance"`
	InitialDistance   int                   `json:"initial_distance"`
	RemainingDistance int                   `json:"remaining_distance"`
	EventPending      bool                  `json:"event_pending"`
	Completed         bool                  `json:"completed"`
	Reward            int                   `json:"reward"`
	Supplies          int                   `json:"supplies"`
	Crew              int                   `json:"crew"`
	ActionTaken       bool                  `json:"action_taken"`
	Passengers        []passenger.Passenger `json:"passengers,omitempty"`
}

// View copies the mission's observable state.
func (m *Mission) View() MissionView {
	v := MissionView{
		ID:                m.ID,
		Kind:              m.Kind.String(),
		Phase:             m.Phase(),
		Train:             m.Train,
		Route:             m.Route,
		Weather:           m.Weather.Name,
		WeatherIndex:      m.WeatherIndex,
		EventChance:       m.Weather.DecisionMakingProbability,
		InitialDistance:   m.initialDistance,
		RemainingDistance: m.remainingDistance,
		EventPending:      m.eventPending,
		Completed:         m.IsCompleted(),
		Reward:            m.reward,
	}
	if r := m.rescue; r != nil {
		v.Supplies = r.Supplies
		v.Crew = r.Crew
		v.ActionTaken = r.ActionTaken
		for _, p := range r.Passengers {
			v.Passengers = append(v.Passengers, *p)
		}
	}
	return v
}

// Snapshot is the whole observable game state.
type Snapshot struct {
	Pending  []MissionView   `json:"pending"`
	Deployed []MissionView   `json:"deployed"`
	Payments int             `json:"payments"`
	Trains   []vehicle.Train `json:"trains"`
	Crew     []crew.Member   `json:"crew"`
}

// Engine owns the pending mission slots and the deployed missions. One mutex
// serializes every mutation, so commands and Step may come from any goroutine.
type Engine struct {
	mu       sync.Mutex
	world    *World
	pending  []*Mission
	deployed []*Mission
	payments int
	history  HistoryRecorder
}

// NewEngine creates an engine over a world. Call RefillPending to offer the
// first missions.
func NewEngine(w *World) *Engine {
	w.normalize()
	return &Engine{
		world:    w,
		payments: w.Balance.StartingPayments,
	}
}

// SetHistory installs the store for acknowledged missions.
func (e *Engine) SetHistory(h HistoryRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = h
}

// Start runs the ticker until ctx ends. Call in a goroutine or not at all.
func (e *Engine) Start(ctx context.Context, rate time.Duration) {
	e.world.Log.Info("Starting mission engine...")
	NewTicker(e, rate, e.world.Log, e.world.Metrics).Start(ctx)
}

// RefillPending generates missions until every pending slot is filled.
func (e *Engine) RefillPending() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refillLocked()
}

func (e *Engine) refillLocked() error {
	for len(e.pending) < e.world.Balance.PendingSlots {
		m, err := GenerateMission(e.world)
		if err != nil {
			return fmt.Errorf("refill pending missions: %w", err)
		}
		e.pending = append(e.pending, m)
	}
	return nil
}

// AddPending offers a specific mission, bypassing the random factory.
func (e *Engine) AddPending(m *Mission) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, m)
}

func (e *Engine) Pending() []MissionView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return views(e.pending)
}

func (e *Engine) Deployed() []MissionView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return views(e.deployed)
}

func views(ms []*Mission) []MissionView {
	out := make([]MissionView, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.View())
	}
	return out
}

// Mission returns one pending or deployed mission.
func (e *Engine) Mission(id string) (MissionView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m, _ := find(e.pending, id); m != nil {
		return m.View(), nil
	}
	if m, _ := find(e.deployed, id); m != nil {
		return m.View(), nil
	}
	return MissionView{}, fmt.Errorf("%w: %s", ErrUnknownMission, id)
}

func find(ms []*Mission, id string) (*Mission, int) {
	for i, m := range ms {
		if m.ID == id {
			return m, i
		}
	}
	return nil, -1
}

// Deploy moves a pending mission onto the line and refills its slot.
func (e *Engine) Deploy(id string, a Allotment) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, i := find(e.pending, id)
	if m == nil {
		if d, _ := find(e.deployed, id); d != nil {
			return ErrAlreadyDeployed
		}
		return fmt.Errorf("%w: %s", ErrUnknownMission, id)
	}
	if err := m.Deploy(a); err != nil {
		return err
	}
	e.pending = append(e.pending[:i], e.pending[i+1:]...)
	e.deployed = append(e.deployed, m)

	if err := e.refillLocked(); err != nil {
		e.world.Log.Err(err, "could not refill pending slot")
	}
	return nil
}

// Step advances every deployed mission by dt.
func (e *Engine) Step(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.deployed {
		m.Update(dt)
	}
}

// withDeployed runs fn on a deployed mission under the engine lock.
func (e *Engine) withDeployed(id string, fn func(m *Mission) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, _ := find(e.deployed, id)
	if m == nil {
		if p, _ := find(e.pending, id); p != nil {
			return ErrNotDeployed
		}
		return fmt.Errorf("%w: %s", ErrUnknownMission, id)
	}
	return fn(m)
}

func (e *Engine) SelectPassenger(missionID, passengerID string, selected bool) error {
	return e.withDeployed(missionID, func(m *Mission) error {
		return m.SelectPassenger(passengerID, selected)
	})
}

func (e *Engine) UseSupply(missionID string) error {
	return e.withDeployed(missionID, (*Mission).UseSupply)
}

func (e *Engine) UseCrew(missionID string) error {
	return e.withDeployed(missionID, (*Mission).UseCrew)
}

func (e *Engine) Ignore(missionID string) error {
	return e.withDeployed(missionID, (*Mission).Ignore)
}

func (e *Engine) Finish(missionID string) error {
	return e.withDeployed(missionID, (*Mission).Finish)
}

func (e *Engine) Resolve(missionID string) error {
	return e.withDeployed(missionID, (*Mission).Resolve)
}

// Acknowledge removes a completed mission, pays its reward and records it.
func (e *Engine) Acknowledge(missionID string) (MissionSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, i := find(e.deployed, missionID)
	if m == nil {
		return MissionSummary{}, fmt.Errorf("%w: %s", ErrUnknownMission, missionID)
	}
	if !m.IsCompleted() {
		return MissionSummary{}, ErrNotCompleted
	}

	e.deployed = append(e.deployed[:i], e.deployed[i+1:]...)
	e.payments += m.reward

	s := MissionSummary{
		MissionID:       m.ID,
		Kind:            m.Kind.String(),
		Train:           m.Train,
		Start:           m.Route.Start,
		End:             m.Route.End,
		Weather:         m.Weather.Name,
		InitialDistance: m.initialDistance,
		Reward:          m.reward,
		CompletedAt:     time.Now(),
	}
	if m.rescue != nil {
		s.Passengers = len(m.rescue.Passengers)
	}

	e.world.emit(m.ID, events.EventTypeMissionAcknowledged, m.Train, AcknowledgedPayload{
		Reward:   m.reward,
		Payments: e.payments,
	})
	if e.history != nil {
		if err := e.history.RecordMission(s); err != nil {
			e.world.Log.Err(err, "failed to record mission history")
		}
	}
	return s, nil
}

// UpgradeTrain buys one level of a train attribute with payments.
func (e *Engine) UpgradeTrain(name string, attr vehicle.Attribute) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	train, err := e.world.Vehicles.Get(name)
	if err != nil {
		return 0, err
	}
	level, err := train.Level(attr)
	if err != nil {
		return 0, err
	}
	if level >= vehicle.MaxLevel {
		return level, ErrMaxLevel
	}
	cost := rules.UpgradeCost(e.world.Balance.UpgradeBaseCost, level)
	if e.payments < cost {
		return level, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPayments, e.payments, cost)
	}

	newLevel, err := e.world.Vehicles.Upgrade(name, attr)
	if err != nil {
		if errors.Is(err, vehicle.ErrMaxLevel) {
			return newLevel, ErrMaxLevel
		}
		return newLevel, err
	}
	e.payments -= cost

	e.world.emit("", events.EventTypeTrainUpgraded, name, UpgradePayload{
		Attribute: string(attr),
		Level:     newLevel,
		Cost:      cost,
		Payments:  e.payments,
	})
	return newLevel, nil
}

// Payments is the player's wallet.
func (e *Engine) Payments() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payments
}

// Snapshot copies the full observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Pending:  views(e.pending),
		Deployed: views(e.deployed),
		Payments: e.payments,
		Trains:   e.world.Vehicles.All(),
		Crew:     e.world.Crew.All(),
	}
}
