package engine

import "errors"

// Validation failures. A command that returns one of these left every
// mission, pool and passenger untouched.
var (
	ErrEmptySelection       = errors.New("no passengers selected")
	ErrInsufficientSupplies = errors.New("not enough supplies")
	ErrInsufficientCrew     = errors.New("not enough crew")
	ErrActionAlreadyTaken   = errors.New("cannot ignore an event after using supply or crew")
	ErrNoActionTaken        = errors.New("cannot finish an event without using supply or crew")
	ErrNoPendingEvent       = errors.New("mission has no pending event")
	ErrNotDeployed          = errors.New("mission is not deployed")
	ErrAlreadyDeployed      = errors.New("mission already deployed")
	ErrInvalidAllotment     = errors.New("allotments must not be negative")
	ErrUnknownMission       = errors.New("unknown mission")
	ErrNotCompleted         = errors.New("mission has not completed")
	ErrUnknownPassenger     = errors.New("unknown passenger")
	ErrInsufficientPayments = errors.New("not enough payments")
	ErrMaxLevel             = errors.New("attribute already at max level")
	ErrWrongKind            = errors.New("command not supported by this mission kind")
	ErrEmptyRoute           = errors.New("route has no distance")
	ErrNoTrains             = errors.New("no trains available")
)
