package engine

import "github.com/MRamiBalles/FrostlineExpress/internal/events"

// Delivery carries cargo between two stops. Its events need a single
// acknowledgement from the player before the train moves on.
type Delivery struct {
	Resolved int `json:"resolved"`
}

// Resolve clears a pending delivery event.
func (m *Mission) Resolve() error {
	if err := m.requireEvent(KindDelivery); err != nil {
		return err
	}
	m.delivery.Resolved++
	m.world.emit(m.ID, events.EventTypeEventResolved, "", nil)
	m.setEventPending(false)
	return nil
}

// Delivery returns the delivery state, or nil for other kinds.
func (m *Mission) Delivery() *Delivery { return m.delivery }
