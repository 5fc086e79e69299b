// Package main - frostline-sim
// Headless fast-forward runner for balance checks. It builds the same world
// as the server, autoplays a seeded run and prints what happened.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/MRamiBalles/FrostlineExpress/internal/catalog"
	"github.com/MRamiBalles/FrostlineExpress/internal/config"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/logger"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/random"
)

func main() {
	configDir := flag.String("config", ".", "Directory holding "+config.FileName)
	seed := flag.Int64("seed", 1, "Random seed")
	missions := flag.Int("missions", 20, "Acknowledged missions to play")
	maxSteps := flag.Int("max-steps", 200000, "Step limit")
	step := flag.Duration("step", 100*time.Millisecond, "Simulated time per step")
	supplies := flag.Int("supplies", 3, "Supplies sent with each rescue")
	crew := flag.Int("crew", 1, "Crew sent with each rescue")
	upgrade := flag.Bool("upgrade", true, "Spend rewards on train upgrades")
	out := flag.String("out", "", "Write the summary as JSON to this file")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fail(err)
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		fail(err)
	}

	collector := metrics.New()
	journal := events.NewEventLog(nil)
	eng := engine.NewEngine(&engine.World{
		Random:   random.NewSeeded(*seed),
		Routes:   cat.RouteTable(),
		Weathers: cat.WeatherTable(),
		Vehicles: cat.VehicleRegistry(),
		Crew:     cat.CrewRoster(),
		Balance:  cfg.Balance,
		Log:      log,
		Journal:  journal,
		Metrics:  collector,
	})
	if err := eng.RefillPending(); err != nil {
		fail(err)
	}

	start := time.Now()
	stats := NewAutoplayer(eng, Config{
		Missions:    *missions,
		MaxSteps:    *maxSteps,
		Step:        *step,
		Supplies:    *supplies,
		Crew:        *crew,
		AutoUpgrade: *upgrade,
	}, log).Run()
	wall := time.Since(start)

	printResults(stats, collector, *seed, wall)

	if *out != "" {
		results := map[string]interface{}{
			"seed":    *seed,
			"stats":   stats,
			"metrics": collector.Snapshot(),
			"journal": journal.Len(),
		}
		jsonData, _ := json.MarshalIndent(results, "", "  ")
		if err := os.WriteFile(*out, jsonData, 0644); err != nil {
			fail(err)
		}
		fmt.Printf("\nResults saved to %s\n", *out)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "frostline-sim:", err)
	os.Exit(1)
}

func printResults(stats Stats, m *metrics.Collector, seed int64, wall time.Duration) {
	fmt.Println("=========================================")
	fmt.Println("FROSTLINE SIM RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Seed:              %d\n", seed)
	fmt.Printf("Steps:             %d (%s simulated, %v wall)\n", stats.Steps, stats.SimulatedTime, wall.Round(time.Millisecond))
	fmt.Printf("Deployed:          %d (rescue %d, delivery %d)\n",
		stats.Deployed, stats.MissionsByKind["rescue"], stats.MissionsByKind["delivery"])
	fmt.Printf("Acknowledged:      %d\n", stats.Acknowledged)
	fmt.Printf("Rewards:           %d\n", stats.Rewards)
	fmt.Printf("Passengers home:   %d\n", stats.Passengers)
	fmt.Printf("Passengers lost:   %d\n", m.PassengersLost)
	fmt.Printf("Events raised:     %d\n", m.EventsRaised)
	fmt.Printf("Intervals skipped: %d\n", m.IntervalsSkipped)
	fmt.Printf("Upgrades bought:   %d\n", stats.Upgrades)
	fmt.Printf("Final payments:    %d\n", stats.FinalPayments)
	fmt.Printf("Rejected commands: %d\n", stats.Rejected)
	fmt.Println("=========================================")
}
