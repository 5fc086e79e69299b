// Package main - frostline-agitator
// Load generator: opens many WebSocket clients against a running server and
// spams mission commands, timing each ACK by request id.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/network"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Output         string
}

// Stats tracks performance metrics
type Stats struct {
	CommandsSent   int64
	AcksOK         int64
	AcksRejected   int64
	EventsReceived int64
	Snapshots      int64
	Errors         int64
	Latencies      []time.Duration
	mu             sync.Mutex
}

func (s *Stats) observe(d time.Duration) {
	s.mu.Lock()
	s.Latencies = append(s.Latencies, d)
	s.mu.Unlock()
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Command interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	out := flag.String("out", "stress_test_results.json", "Results file")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Output:         *out,
	}

	fmt.Println("=========================================")
	fmt.Println("FROSTLINE AGITATOR - Stress Test Tool")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\nStarting clients...")

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: Sent=%d OK=%d Rejected=%d Errors=%d\n",
					atomic.LoadInt64(&stats.CommandsSent),
					atomic.LoadInt64(&stats.AcksOK),
					atomic.LoadInt64(&stats.AcksRejected),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

// player is one connection's view of the world, refreshed from snapshots.
type player struct {
	mu       sync.Mutex
	snapshot engine.Snapshot
	inflight map[string]time.Time
	rng      *rand.Rand
}

func (p *player) sent(id string) {
	p.mu.Lock()
	p.inflight[id] = time.Now()
	p.mu.Unlock()
}

func (p *player) acked(id string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	at, ok := p.inflight[id]
	if !ok {
		return 0, false
	}
	delete(p.inflight, id)
	return time.Since(at), true
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	p := &player{
		inflight: make(map[string]time.Time),
		rng:      rand.New(rand.NewSource(int64(clientID) + time.Now().UnixNano())),
	}

	go receive(conn, p, stats)

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cmd, ok := p.nextCommand()
			if !ok {
				continue
			}
			cmd.RequestID = uuid.NewString()
			p.sent(cmd.RequestID)
			if err := conn.WriteJSON(cmd); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.CommandsSent, 1)
		}
	}
}

// receive reads newline-batched frames until the connection closes.
func receive(conn *websocket.Conn, p *player, stats *Stats) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		for _, frame := range splitFrames(data) {
			var env struct {
				Type    string          `json:"type"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal(frame, &env); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}
			switch env.Type {
			case network.MsgTypeSnapshot:
				var snap engine.Snapshot
				if json.Unmarshal(env.Payload, &snap) == nil {
					p.mu.Lock()
					p.snapshot = snap
					p.mu.Unlock()
					atomic.AddInt64(&stats.Snapshots, 1)
				}
			case network.MsgTypeAck:
				var ack network.Ack
				if json.Unmarshal(env.Payload, &ack) != nil {
					continue
				}
				if ack.OK {
					atomic.AddInt64(&stats.AcksOK, 1)
				} else {
					atomic.AddInt64(&stats.AcksRejected, 1)
				}
				if d, ok := p.acked(ack.RequestID); ok {
					stats.observe(d)
				}
			case network.MsgTypeEvent:
				atomic.AddInt64(&stats.EventsReceived, 1)
			}
		}
	}
}

func splitFrames(data []byte) [][]byte {
	var frames [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				frames = append(frames, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		frames = append(frames, data[start:])
	}
	return frames
}

// nextCommand picks a plausible command from the last snapshot. Many of them
// race other clients and get rejected, which is the point.
func (p *player) nextCommand() (network.Command, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := p.snapshot

	var options []network.Command
	for _, m := range snap.Pending {
		options = append(options, network.Command{
			Type: network.CmdDeploy, MissionID: m.ID,
			Supplies: p.rng.Intn(4), Crew: p.rng.Intn(2),
		})
	}
	for _, m := range snap.Deployed {
		switch {
		case m.Completed:
			options = append(options, network.Command{Type: network.CmdAcknowledge, MissionID: m.ID})
		case m.EventPending && m.Kind == engine.KindDelivery.String():
			options = append(options, network.Command{Type: network.CmdResolve, MissionID: m.ID})
		case m.EventPending:
			for _, ps := range m.Passengers {
				options = append(options, network.Command{
					Type: network.CmdSelect, MissionID: m.ID, PassengerID: ps.ID, Selected: p.rng.Intn(2) == 0,
				})
			}
			options = append(options,
				network.Command{Type: network.CmdUseSupply, MissionID: m.ID},
				network.Command{Type: network.CmdUseCrew, MissionID: m.ID},
				network.Command{Type: network.CmdIgnore, MissionID: m.ID},
				network.Command{Type: network.CmdFinish, MissionID: m.ID},
			)
		}
	}
	for _, t := range snap.Trains {
		options = append(options, network.Command{Type: network.CmdUpgrade, Train: t.Name, Attribute: "warmth"})
	}

	if len(options) == 0 {
		return network.Command{}, false
	}
	return options[p.rng.Intn(len(options))], true
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("STRESS TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.CommandsSent)
	ok := atomic.LoadInt64(&stats.AcksOK)
	rejected := atomic.LoadInt64(&stats.AcksRejected)
	evts := atomic.LoadInt64(&stats.EventsReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Commands Sent:     %d\n", sent)
	fmt.Printf("ACK ok:            %d\n", ok)
	fmt.Printf("ACK rejected:      %d\n", rejected)
	fmt.Printf("Events Received:   %d\n", evts)
	fmt.Printf("Snapshots:         %d\n", atomic.LoadInt64(&stats.Snapshots))
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f cmd/sec\n", throughput)

	stats.mu.Lock()
	latencies := stats.Latencies
	stats.mu.Unlock()
	if len(latencies) > 0 {
		var total time.Duration
		min, max := latencies[0], latencies[0]
		for _, l := range latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}
		avg := total / time.Duration(len(latencies))

		fmt.Printf("\nACK latency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", max)
	}

	// Rejected ACKs are expected under contention; missing ACKs are not.
	fmt.Println("\n-----------------------------------------")
	unanswered := sent - ok - rejected
	switch {
	case errs == 0 && unanswered <= int64(config.NumClients):
		fmt.Println("TEST PASSED: every command was answered")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("TEST WARNING: some errors detected")
	default:
		fmt.Println("TEST FAILED: high error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"commands_sent":      sent,
		"acks_ok":            ok,
		"acks_rejected":      rejected,
		"events_received":    evts,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0644); err != nil {
		log.Printf("writing results: %v", err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.Output)
}
