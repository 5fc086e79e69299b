package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/passenger"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/network"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/logger"
)

// Config for one headless run.
type Config struct {
	Missions     int           // stop after this many acknowledged missions
	MaxSteps     int           // hard stop
	Step         time.Duration // simulated time per step
	Supplies     int           // allotment per rescue deployment
	Crew         int
	AutoUpgrade  bool
	CommandLimit int // per-step cap on resolution commands per mission
}

// Stats tracks what the autoplayer did.
type Stats struct {
	Steps          int            `json:"steps"`
	SimulatedTime  string         `json:"simulated_time"`
	Deployed       int            `json:"deployed"`
	Acknowledged   int            `json:"acknowledged"`
	Rewards        int            `json:"rewards"`
	Passengers     int            `json:"passengers_delivered"`
	Commands       map[string]int `json:"commands"`
	Rejected       int            `json:"rejected"`
	Upgrades       int            `json:"upgrades"`
	FinalPayments  int            `json:"final_payments"`
	MissionsByKind map[string]int `json:"missions_by_kind"`
}

// Autoplayer drives an engine with a fixed policy: deploy whatever a free
// train can take, help every passenger it can afford, resolve deliveries
// and bank rewards.
type Autoplayer struct {
	eng    *engine.Engine
	cfg    Config
	log    *logger.Logger
	stats  Stats
	elapse time.Duration
}

func NewAutoplayer(eng *engine.Engine, cfg Config, log *logger.Logger) *Autoplayer {
	if cfg.Step <= 0 {
		cfg.Step = 100 * time.Millisecond
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 1_000_000
	}
	if cfg.CommandLimit <= 0 {
		cfg.CommandLimit = 8
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Autoplayer{
		eng: eng,
		cfg: cfg,
		log: log,
		stats: Stats{
			Commands:       make(map[string]int),
			MissionsByKind: make(map[string]int),
		},
	}
}

// Run plays until the mission target or the step limit is reached.
func (a *Autoplayer) Run() Stats {
	for a.stats.Steps < a.cfg.MaxSteps && a.stats.Acknowledged < a.cfg.Missions {
		a.deployIdle()
		a.eng.Step(a.cfg.Step)
		a.elapse += a.cfg.Step
		a.stats.Steps++
		for _, m := range a.eng.Deployed() {
			a.handle(m)
		}
	}
	a.stats.SimulatedTime = a.elapse.String()
	a.stats.FinalPayments = a.eng.Payments()
	return a.stats
}

func (a *Autoplayer) exec(cmd network.Command) (interface{}, error) {
	result, err := network.Dispatch(a.eng, cmd)
	if err != nil {
		a.stats.Rejected++
		a.log.Debug(fmt.Sprintf("%s %s rejected: %v", cmd.Type, cmd.MissionID, err))
		return nil, err
	}
	a.stats.Commands[cmd.Type]++
	return result, nil
}

// deployIdle sends every pending mission whose train is free.
func (a *Autoplayer) deployIdle() {
	busy := make(map[string]bool)
	for _, m := range a.eng.Deployed() {
		busy[m.Train] = true
	}
	for _, m := range a.eng.Pending() {
		if m.Train != "" && busy[m.Train] {
			continue
		}
		cmd := network.Command{Type: network.CmdDeploy, MissionID: m.ID}
		if m.Kind == engine.KindRescue.String() {
			cmd.Supplies, cmd.Crew = a.cfg.Supplies, a.cfg.Crew
		}
		if _, err := a.exec(cmd); err == nil {
			busy[m.Train] = true
			a.stats.Deployed++
			a.stats.MissionsByKind[m.Kind]++
		}
	}
}

func (a *Autoplayer) handle(m engine.MissionView) {
	switch {
	case m.Completed:
		a.acknowledge(m)
	case m.EventPending && m.Kind == engine.KindDelivery.String():
		a.exec(network.Command{Type: network.CmdResolve, MissionID: m.ID})
	case m.EventPending:
		a.resolveRescue(m.ID)
	}
}

// resolveRescue treats everyone who is not comfortable: supplies first,
// then crew. With nothing to spend the event is ignored.
func (a *Autoplayer) resolveRescue(id string) {
	for i := 0; i < a.cfg.CommandLimit; i++ {
		m, err := a.eng.Mission(id)
		if err != nil || !m.EventPending {
			return
		}

		var needy []string
		for _, p := range m.Passengers {
			if p.Status != passenger.StatusComfortable {
				needy = append(needy, p.ID)
			}
		}

		action := ""
		switch {
		case len(needy) > 0 && m.Supplies >= len(needy):
			action = network.CmdUseSupply
		case len(needy) > 0 && m.Crew >= len(needy):
			action = network.CmdUseCrew
		case m.ActionTaken:
			a.exec(network.Command{Type: network.CmdFinish, MissionID: id})
			continue
		default:
			a.exec(network.Command{Type: network.CmdIgnore, MissionID: id})
			continue
		}

		for _, pid := range needy {
			a.exec(network.Command{Type: network.CmdSelect, MissionID: id, PassengerID: pid, Selected: true})
		}
		if _, err := a.exec(network.Command{Type: action, MissionID: id}); err != nil {
			return
		}
	}
}

func (a *Autoplayer) acknowledge(m engine.MissionView) {
	result, err := a.exec(network.Command{Type: network.CmdAcknowledge, MissionID: m.ID})
	if err != nil {
		return
	}
	s := result.(engine.MissionSummary)
	a.stats.Acknowledged++
	a.stats.Rewards += s.Reward
	a.stats.Passengers += s.Passengers

	if a.cfg.AutoUpgrade && s.Train != "" {
		a.upgrade(s.Train)
	}
}

// upgrade buys one warmth level, or speed once warmth is maxed.
func (a *Autoplayer) upgrade(train string) {
	for _, attr := range []vehicle.Attribute{vehicle.AttributeWarmth, vehicle.AttributeSpeed} {
		_, err := a.exec(network.Command{Type: network.CmdUpgrade, Train: train, Attribute: string(attr)})
		if err == nil {
			a.stats.Upgrades++
			return
		}
		if !errors.Is(err, engine.ErrMaxLevel) {
			return
		}
	}
}
