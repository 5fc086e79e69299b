package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/crew"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/passenger"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/route"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/rules"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/weather"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/random"
)

// Kind is the closed set of mission types. Per-kind behaviour is selected by
// switching on it; adding a kind means extending every switch in this package.
type Kind int

const (
	KindRescue Kind = iota
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindRescue:
		return "rescue"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// ParseKind maps a name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "rescue":
		return KindRescue, nil
	case "delivery":
		return KindDelivery, nil
	default:
		return 0, fmt.Errorf("unknown mission kind %q", s)
	}
}

// State is the coarse lifecycle position. While Deployed a mission is either
// progressing or suspended on a pending event; see Phase.
type State int

const (
	StatePending State = iota
	StateDeployed
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDeployed:
		return "deployed"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Allotment is what the player sends along when deploying.
type Allotment struct {
	Supplies int `json:"supplies"`
	Crew     int `json:"crew"`
}

// Mission is one timed trip. It is not safe for concurrent use; the Engine
// serializes every call.
type Mission struct {
	ID           string
	Kind         Kind
	Route        route.Route
	Weather      weather.Weather
	WeatherIndex int
	// Train is the assigned vehicle; empty when none was available.
	Train string

	initialDistance     int
	remainingDistance   int
	elapsed             time.Duration
	state               State
	eventPending        bool
	skippedLastInterval bool
	reward              int

	rescue   *Rescue
	delivery *Delivery

	world *World
}

// NewMission creates a pending mission of the given kind on an explicit route.
// The weather is drawn from the world's table.
func NewMission(w *World, kind Kind, r route.Route, train string) (*Mission, error) {
	w.normalize()

	distance, err := w.Routes.Distance(r)
	if err != nil {
		return nil, fmt.Errorf("mission route: %w", err)
	}
	if distance <= 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrEmptyRoute, r.Start, r.End)
	}
	wx, idx, err := w.Weathers.Random(w.Random)
	if err != nil {
		return nil, fmt.Errorf("mission weather: %w", err)
	}

	m := &Mission{
		ID:                uuid.NewString(),
		Kind:              kind,
		Route:             r,
		Weather:           wx,
		WeatherIndex:      idx,
		Train:             train,
		initialDistance:   distance,
		remainingDistance: distance,
		state:             StatePending,
		world:             w,
	}

	switch kind {
	case KindRescue:
		m.rescue = newRescueController(w.Balance, idx)
	case KindDelivery:
		m.delivery = &Delivery{}
	default:
		return nil, fmt.Errorf("unknown mission kind %d", kind)
	}

	w.emit(m.ID, events.EventTypeMissionCreated, train, MissionCreatedPayload{
		Kind:            kind.String(),
		Train:           train,
		Start:           r.Start,
		End:             r.End,
		Weather:         wx.Name,
		WeatherIndex:    idx,
		EventChance:     wx.DecisionMakingProbability,
		InitialDistance: distance,
	})
	return m, nil
}

// GenerateMission is the pending-slot factory: it picks a kind and a train at
// random. Rescue missions run the train's home route; deliveries draw a route.
func GenerateMission(w *World) (*Mission, error) {
	w.normalize()

	trains := w.Vehicles.All()
	train, ok := random.PickOne(w.Random, trains)
	if !ok {
		return nil, ErrNoTrains
	}

	kind := Kind(w.Random.Intn(2))
	switch kind {
	case KindRescue:
		return NewMission(w, kind, route.Route{Start: train.RouteStart, End: train.RouteEnd}, train.Name)
	case KindDelivery:
		r, err := randomRoute(w)
		if err != nil {
			return nil, err
		}
		return NewMission(w, kind, r, train.Name)
	default:
		return nil, fmt.Errorf("unknown mission kind %d", kind)
	}
}

// randomRoute draws a start stop and a later end stop on the line.
func randomRoute(w *World) (route.Route, error) {
	stops := w.Routes.Stops()
	if len(stops) < 2 {
		return route.Route{}, ErrEmptyRoute
	}
	start := w.Random.Intn(len(stops) - 1)
	end := start + 1 + w.Random.Intn(len(stops)-start-1)
	return route.Route{Start: stops[start].Name, End: stops[end].Name}, nil
}

// InitialDistance is the route length in miles.
func (m *Mission) InitialDistance() int { return m.initialDistance }

// RemainingDistance is the miles still to travel.
func (m *Mission) RemainingDistance() int { return m.remainingDistance }

func (m *Mission) EventPending() bool { return m.eventPending }

func (m *Mission) IsCompleted() bool { return m.state == StateCompleted }

func (m *Mission) State() State { return m.state }

// Phase refines State for display: progressing or event_pending while deployed.
func (m *Mission) Phase() string {
	if m.state == StateDeployed {
		if m.eventPending {
			return "event_pending"
		}
		return "progressing"
	}
	return m.state.String()
}

func (m *Mission) SkippedLastInterval() bool { return m.skippedLastInterval }

// Reward is the payment computed at completion.
func (m *Mission) Reward() int { return m.reward }

// Rescue returns the rescue controller, or nil for other kinds.
func (m *Mission) Rescue() *Rescue { return m.rescue }

// Deploy sends the mission out. It fails without side effects when the train
// is already on another active mission.
func (m *Mission) Deploy(a Allotment) error {
	if m.state != StatePending {
		return ErrAlreadyDeployed
	}
	if a.Supplies < 0 || a.Crew < 0 {
		return ErrInvalidAllotment
	}
	if m.Train != "" {
		if err := m.world.Vehicles.Assign(m.Train, m.ID); err != nil {
			return fmt.Errorf("deploy %s: %w", m.ID, err)
		}
	}

	switch m.Kind {
	case KindRescue:
		m.rescue.Supplies = a.Supplies
		m.rescue.Crew = a.Crew
	case KindDelivery:
	}
	m.state = StateDeployed

	m.world.emit(m.ID, events.EventTypeMissionDeployed, m.Train, DeployedPayload{
		Train:    m.Train,
		Supplies: a.Supplies,
		Crew:     a.Crew,
	})
	m.world.Log.Event(string(events.EventTypeMissionDeployed), m.ID,
		fmt.Sprintf("%s %s -> %s (%d mi)", m.Kind, m.Route.Start, m.Route.End, m.initialDistance))
	return nil
}

// Complete finalizes the mission. Calling it again is a no-op.
func (m *Mission) Complete() {
	if m.state == StateCompleted {
		return
	}
	m.state = StateCompleted
	m.eventPending = false
	m.elapsed = 0

	if m.Train != "" {
		m.world.Vehicles.Release(m.Train, m.ID)
	}

	b := m.world.Balance
	aboard := 0
	if m.Kind == KindRescue {
		aboard = len(m.rescue.Passengers)
	}
	m.reward = rules.MissionReward(m.initialDistance, aboard, b.RewardPerMile, b.RewardPerPassenger)

	m.world.emit(m.ID, events.EventTypeMissionCompleted, m.Train, CompletedPayload{
		Reward:     m.reward,
		Miles:      m.initialDistance,
		Passengers: aboard,
	})
	m.world.Log.Event(string(events.EventTypeMissionCompleted), m.ID,
		fmt.Sprintf("arrived at %s, reward %d", m.Route.End, m.reward))

	m.recoverRestingCrew()
}

// recoverRestingCrew gives each resting crew member a chance to improve.
// A member back at the best status stops resting.
func (m *Mission) recoverRestingCrew() {
	w := m.world
	for _, id := range w.Crew.Resting() {
		var payload *CrewRecoveredPayload
		_ = w.Crew.Update(id, func(c *crew.Member) {
			improved := w.Random.ShouldOccur(w.Balance.CrewRecoveryProbability) && c.MakeBetter()
			if c.Status == passenger.Best {
				c.Resting = false
			}
			if improved {
				payload = &CrewRecoveredPayload{Status: c.Status.String(), Resting: c.Resting}
			}
		})
		if payload != nil {
			w.emit(m.ID, events.EventTypeCrewRecovered, id, *payload)
		}
	}
}
