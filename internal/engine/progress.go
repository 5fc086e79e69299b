package engine

import (
	"time"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/rules"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
)

// Update advances a deployed mission by dt of simulated time. It does nothing
// while the mission is pending, suspended on an event or completed. Every
// full MileDuration consumes one mile; a large dt can consume several.
func (m *Mission) Update(dt time.Duration) {
	if m.state != StateDeployed || m.eventPending || dt <= 0 {
		return
	}
	step := m.world.Balance.MileDuration

	m.elapsed += dt
	for m.elapsed >= step {
		m.elapsed -= step
		m.setRemainingDistance(m.remainingDistance - 1)

		if m.state == StateCompleted || m.eventPending {
			m.elapsed = 0
			return
		}
	}
}

// setRemainingDistance is the only writer of remainingDistance.
func (m *Mission) setRemainingDistance(miles int) {
	if miles < 0 {
		miles = 0
	}
	m.remainingDistance = miles
	m.onDistanceChanged()
}

func (m *Mission) onDistanceChanged() {
	if m.remainingDistance == 0 {
		m.Complete()
		return
	}

	before := m.remainingDistance
	if m.milestoneReached(m.world.Balance.MilesPerInterval) {
		m.world.emit(m.ID, events.EventTypeMilestoneReached, m.Train, DistancePayload{MilesRemaining: before})
		m.branch()
	}

	// A skip re-enters this method at the new distance, which runs the
	// kind hook there. Skip it for the distance we jumped away from.
	if m.state == StateCompleted || m.remainingDistance != before {
		return
	}
	m.onKindDistanceChanged()
}

// milestoneReached reports whether the miles travelled so far are a non-zero
// multiple of interval.
func (m *Mission) milestoneReached(interval int) bool {
	if m.remainingDistance == m.initialDistance || interval <= 0 {
		return false
	}
	return (m.initialDistance-m.remainingDistance)%interval == 0
}

// branch resolves a milestone: event, then skip, then reset of the skip flag.
// A mission without a train neither raises events nor skips.
func (m *Mission) branch() {
	src := m.world.Random
	train, hasTrain := m.train()

	if hasTrain && src.ShouldOccur(rules.EventProbability(m.Weather.DecisionMakingProbability, train)) {
		m.skippedLastInterval = false
		m.setEventPending(true)
		return
	}

	// The skip chance is drawn before the flag is checked.
	if hasTrain && src.ShouldOccur(rules.SkipProbability(train)) && !m.skippedLastInterval {
		m.skippedLastInterval = true
		from := m.remainingDistance
		to := from - m.world.Balance.MilesPerInterval
		if to < 0 {
			to = 0
		}
		m.world.emit(m.ID, events.EventTypeIntervalSkipped, m.Train, SkipPayload{From: from, To: to})
		m.setRemainingDistance(to)
		return
	}

	if m.skippedLastInterval {
		m.skippedLastInterval = false
	}
}

// train reads the current levels of the assigned train so upgrades bought
// mid-mission apply at the next milestone.
func (m *Mission) train() (vehicle.Train, bool) {
	if m.Train == "" {
		return vehicle.Train{}, false
	}
	t, err := m.world.Vehicles.Get(m.Train)
	if err != nil {
		return vehicle.Train{}, false
	}
	return t, true
}

// setEventPending fires the kind's event hook on every false to true edge.
func (m *Mission) setEventPending(pending bool) {
	old := m.eventPending
	m.eventPending = pending
	if old == pending {
		return
	}

	m.world.emit(m.ID, events.EventTypeEventPendingChanged, m.Train, PendingPayload{
		Pending:        pending,
		MilesRemaining: m.remainingDistance,
	})
	if pending {
		if m.world.Metrics != nil {
			m.world.Metrics.RecordEventRaised()
		}
		m.onEventOccur()
	}
}

func (m *Mission) onEventOccur() {
	switch m.Kind {
	case KindRescue:
		m.rescueEventOccur()
	case KindDelivery:
		// Deliveries wait for Resolve.
	}
}

func (m *Mission) onKindDistanceChanged() {
	switch m.Kind {
	case KindRescue:
		m.rescueDistanceChanged()
	case KindDelivery:
	}
}
