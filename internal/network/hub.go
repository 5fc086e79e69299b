// Package network carries the live game to players: a websocket hub that
// streams the mission journal and periodic snapshots and accepts player
// commands, plus the JSON HTTP API.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/logger"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"
)

// Message types sent to clients.
const (
	MsgTypeEvent    = "EVENT"
	MsgTypeSnapshot = "SNAPSHOT"
	MsgTypeAck      = "ACK"
)

// Message is the envelope of everything the server pushes.
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Commander is the engine surface players may drive.
type Commander interface {
	Deploy(missionID string, a engine.Allotment) error
	SelectPassenger(missionID, passengerID string, selected bool) error
	UseSupply(missionID string) error
	UseCrew(missionID string) error
	Ignore(missionID string) error
	Finish(missionID string) error
	Resolve(missionID string) error
	Acknowledge(missionID string) (engine.MissionSummary, error)
	UpgradeTrain(name string, attr vehicle.Attribute) (int, error)
	Mission(id string) (engine.MissionView, error)
	Snapshot() engine.Snapshot
}

// HubConfig tunes buffers and push intervals.
type HubConfig struct {
	ClientSendBuffer int
	BroadcastBuffer  int
	SnapshotInterval time.Duration
	PollInterval     time.Duration
}

func (c HubConfig) withDefaults() HubConfig {
	if c.ClientSendBuffer <= 0 {
		c.ClientSendBuffer = 64
	}
	if c.BroadcastBuffer <= 0 {
		c.BroadcastBuffer = 256
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	return c
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex

	engine  Commander
	logger  *logger.Logger
	metrics *metrics.Collector
	cfg     HubConfig
}

// NewHub initializes a new WebSocket Hub. m may be nil.
func NewHub(eng Commander, log *logger.Logger, m *metrics.Collector, cfg HubConfig) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	cfg = cfg.withDefaults()
	return &Hub{
		broadcast:  make(chan []byte, cfg.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		engine:     eng,
		logger:     log,
		metrics:    m,
		cfg:        cfg,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
// Once it returns, register and unregister no longer block.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.recordConnection(1)
			h.logger.Info("New WebSocket client connected")
			// A fresh client starts from the full state.
			client.enqueue(h.encode(MsgTypeSnapshot, h.engine.Snapshot()))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.recordOut()
				default:
					h.logger.Warn("WebSocket client too slow, dropping it")
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.recordConnection(-1)
}

// leave unregisters a client unless the hub has already stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) encode(msgType string, payload interface{}) []byte {
	data, err := json.Marshal(Message{Type: msgType, Timestamp: time.Now().UnixMilli(), Payload: payload})
	if err != nil {
		h.logger.Err(err, "Failed to serialize message for WebSocket broadcast")
		return nil
	}
	return data
}

// Broadcast queues a message for every client. It never blocks the caller;
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	data := h.encode(msgType, payload)
	if data == nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast queue full, dropping " + msgType)
		if h.metrics != nil {
			h.metrics.RecordWSError()
		}
	}
}

// BroadcastEvent sends one journal entry to all connected clients.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	h.Broadcast(MsgTypeEvent, event)
}

// StartEventPoller follows the journal and pushes new entries to the Hub.
// The engine never waits on the network.
func (h *Hub) StartEventPoller(ctx context.Context, journal *events.EventLog) {
	go func() {
		pollInterval := time.NewTicker(h.cfg.PollInterval)
		defer pollInterval.Stop()

		_, offset := journal.Since(0)
		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				var fresh []events.GameEvent
				fresh, offset = journal.Since(offset)
				for _, event := range fresh {
					h.BroadcastEvent(event)
				}
			}
		}
	}()
}

// StartSnapshotBroadcaster pushes the full engine state on an interval so
// clients can render progress bars between journal entries.
func (h *Hub) StartSnapshotBroadcaster(ctx context.Context) {
	go func() {
		t := time.NewTicker(h.cfg.SnapshotInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if h.ClientCount() > 0 {
					h.Broadcast(MsgTypeSnapshot, h.engine.Snapshot())
				}
			}
		}
	}()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Err(err, "websocket upgrade failed")
		if h.metrics != nil {
			h.metrics.RecordWSError()
		}
		return
	}
	client := NewClient(h, conn)
	if !client.Register() {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func (h *Hub) recordConnection(delta int64) {
	if h.metrics != nil {
		h.metrics.RecordWSConnection(delta)
	}
}

func (h *Hub) recordOut() {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(false)
	}
}
