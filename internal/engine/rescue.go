package engine

import (
	"fmt"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/passenger"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/rules"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
)

// Rescue is the resolution state of a rescue mission: the passengers picked
// up on the way and the supply and crew pools sent along at deploy.
type Rescue struct {
	Passengers  []*passenger.Passenger
	Supplies    int
	Crew        int
	ActionTaken bool

	passengerProbability float64
	boarded              int
}

func newRescueController(b Balance, weatherIndex int) *Rescue {
	return &Rescue{
		passengerProbability: rules.PassengerIncreaseProbability(
			b.PassengerBaseProbability, b.PassengerProbabilityPerWeatherTier, weatherIndex),
	}
}

// PassengerProbability is the chance of boarding a passenger at each spawn point.
func (r *Rescue) PassengerProbability() float64 { return r.passengerProbability }

func (r *Rescue) selected() []*passenger.Passenger {
	var out []*passenger.Passenger
	for _, p := range r.Passengers {
		if p.Selected {
			out = append(out, p)
		}
	}
	return out
}

func (r *Rescue) find(id string) *passenger.Passenger {
	for _, p := range r.Passengers {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// removeDead drops passengers at Death and returns their IDs.
func (r *Rescue) removeDead() []string {
	var dead []string
	alive := r.Passengers[:0]
	for _, p := range r.Passengers {
		if p.IsDead() {
			dead = append(dead, p.ID)
			continue
		}
		alive = append(alive, p)
	}
	for i := len(alive); i < len(r.Passengers); i++ {
		r.Passengers[i] = nil
	}
	r.Passengers = alive
	return dead
}

func (r *Rescue) allComfortable() bool {
	for _, p := range r.Passengers {
		if p.Status != passenger.StatusComfortable {
			return false
		}
	}
	return true
}

// rescueDistanceChanged may board a new passenger at each spawn point.
func (m *Mission) rescueDistanceChanged() {
	r := m.rescue
	if !m.milestoneReached(m.world.Balance.MilesPerPassengerIncrease) {
		return
	}
	if !m.world.Random.ShouldOccur(r.passengerProbability) {
		return
	}
	r.boarded++
	p := passenger.New(fmt.Sprintf("%s-p%d", m.ID[:8], r.boarded))
	r.Passengers = append(r.Passengers, p)
	m.world.emit(m.ID, events.EventTypePassengerBoarded, p.ID, PassengerPayload{To: p.Status.String()})
}

// rescueEventOccur shakes up passenger health. The event clears itself when
// nobody is left in trouble.
func (m *Mission) rescueEventOccur() {
	r := m.rescue
	src := m.world.Random
	for _, p := range r.Passengers {
		if !src.ShouldOccur(m.world.Balance.PassengerStatusChangeProbability) {
			continue
		}
		from := p.Status
		if src.ShouldOccur(0.5) {
			p.MakeWorse()
		} else {
			p.MakeBetter()
		}
		if p.Status != from {
			m.emitStatusChange(p, from)
		}
	}
	m.cleanupDead()

	if len(r.Passengers) == 0 || r.allComfortable() {
		m.setEventPending(false)
	}
}

func (m *Mission) emitStatusChange(p *passenger.Passenger, from passenger.Status) {
	m.world.emit(m.ID, events.EventTypePassengerStatusChanged, p.ID, PassengerPayload{
		From: from.String(),
		To:   p.Status.String(),
	})
}

func (m *Mission) cleanupDead() {
	for _, id := range m.rescue.removeDead() {
		m.world.emit(m.ID, events.EventTypePassengerLost, id, PassengerPayload{To: passenger.StatusDeath.String()})
	}
}

// requireEvent guards every resolution command.
func (m *Mission) requireEvent(kind Kind) error {
	if m.Kind != kind {
		return fmt.Errorf("%w: %s", ErrWrongKind, m.Kind)
	}
	if m.state != StateDeployed {
		return ErrNotDeployed
	}
	if !m.eventPending {
		return ErrNoPendingEvent
	}
	return nil
}

// SelectPassenger marks a passenger for the next supply or crew action.
func (m *Mission) SelectPassenger(id string, selected bool) error {
	if m.Kind != KindRescue {
		return fmt.Errorf("%w: %s", ErrWrongKind, m.Kind)
	}
	if m.state != StateDeployed {
		return ErrNotDeployed
	}
	p := m.rescue.find(id)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPassenger, id)
	}
	p.Selected = selected
	return nil
}

// UseSupply improves every selected passenger by one step, one supply each.
func (m *Mission) UseSupply() error {
	if err := m.requireEvent(KindRescue); err != nil {
		return err
	}
	r := m.rescue
	sel := r.selected()
	if len(sel) == 0 {
		return ErrEmptySelection
	}
	if r.Supplies < len(sel) {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientSupplies, r.Supplies, len(sel))
	}

	for _, p := range sel {
		from := p.Status
		if p.MakeBetter() {
			m.emitStatusChange(p, from)
		}
		p.Selected = false
	}
	r.Supplies -= len(sel)
	r.ActionTaken = true

	m.world.emit(m.ID, events.EventTypeSupplyUsed, "", ResourcePayload{Used: len(sel), Remaining: r.Supplies})
	return nil
}

// UseCrew sends one crew member to each selected passenger. Bad weather makes
// the treatment risky: each passenger worsens with the weather's event chance
// and improves otherwise.
func (m *Mission) UseCrew() error {
	if err := m.requireEvent(KindRescue); err != nil {
		return err
	}
	r := m.rescue
	sel := r.selected()
	if len(sel) == 0 {
		return ErrEmptySelection
	}
	if r.Crew < len(sel) {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientCrew, r.Crew, len(sel))
	}

	for _, p := range sel {
		from := p.Status
		if m.world.Random.ShouldOccur(m.Weather.DecisionMakingProbability) {
			p.MakeWorse()
		} else {
			p.MakeBetter()
		}
		if p.Status != from {
			m.emitStatusChange(p, from)
		}
		p.Selected = false
	}
	r.Crew -= len(sel)
	r.ActionTaken = true

	m.world.emit(m.ID, events.EventTypeCrewUsed, "", ResourcePayload{Used: len(sel), Remaining: r.Crew})
	m.cleanupDead()
	return nil
}

// Ignore dismisses the event untouched. Not allowed once resources were spent.
func (m *Mission) Ignore() error {
	if err := m.requireEvent(KindRescue); err != nil {
		return err
	}
	r := m.rescue
	if r.ActionTaken {
		return ErrActionAlreadyTaken
	}
	for _, p := range r.Passengers {
		p.Selected = false
	}
	m.world.emit(m.ID, events.EventTypeEventIgnored, "", nil)
	m.setEventPending(false)
	return nil
}

// Finish closes an event the player acted on.
func (m *Mission) Finish() error {
	if err := m.requireEvent(KindRescue); err != nil {
		return err
	}
	r := m.rescue
	if !r.ActionTaken {
		return ErrNoActionTaken
	}
	r.ActionTaken = false
	m.world.emit(m.ID, events.EventTypeEventFinished, "", nil)
	m.setEventPending(false)
	return nil
}
