package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Player command types.
const (
	CmdDeploy      = "DEPLOY"
	CmdSelect      = "SELECT"
	CmdUseSupply   = "USE_SUPPLY"
	CmdUseCrew     = "USE_CREW"
	CmdIgnore      = "IGNORE"
	CmdFinish      = "FINISH"
	CmdResolve     = "RESOLVE"
	CmdAcknowledge = "ACKNOWLEDGE"
	CmdUpgrade     = "UPGRADE"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command is an incoming player request.
type Command struct {
	RequestID   string `json:"request_id,omitempty"`
	Type        string `json:"type"`
	MissionID   string `json:"mission_id,omitempty"`
	PassengerID string `json:"passenger_id,omitempty"`
	Selected    bool   `json:"selected,omitempty"`
	Supplies    int    `json:"supplies,omitempty"`
	Crew        int    `json:"crew,omitempty"`
	Train       string `json:"train,omitempty"`
	Attribute   string `json:"attribute,omitempty"`
}

// Ack answers one command.
type Ack struct {
	RequestID string      `json:"request_id,omitempty"`
	Command   string      `json:"command"`
	OK        bool        `json:"ok"`
	Error     string      `json:"error,omitempty"`
	Result    interface{} `json:"result,omitempty"`
}

// Dispatch runs a command against the engine and returns its result.
func Dispatch(eng Commander, cmd Command) (interface{}, error) {
	switch cmd.Type {
	case CmdDeploy:
		if err := eng.Deploy(cmd.MissionID, engine.Allotment{Supplies: cmd.Supplies, Crew: cmd.Crew}); err != nil {
			return nil, err
		}
		return eng.Mission(cmd.MissionID)
	case CmdSelect:
		return nil, eng.SelectPassenger(cmd.MissionID, cmd.PassengerID, cmd.Selected)
	case CmdUseSupply:
		return nil, eng.UseSupply(cmd.MissionID)
	case CmdUseCrew:
		return nil, eng.UseCrew(cmd.MissionID)
	case CmdIgnore:
		return nil, eng.Ignore(cmd.MissionID)
	case CmdFinish:
		return nil, eng.Finish(cmd.MissionID)
	case CmdResolve:
		return nil, eng.Resolve(cmd.MissionID)
	case CmdAcknowledge:
		return eng.Acknowledge(cmd.MissionID)
	case CmdUpgrade:
		level, err := eng.UpgradeTrain(cmd.Train, vehicle.Attribute(cmd.Attribute))
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"train": cmd.Train, "attribute": cmd.Attribute, "level": level}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}

// Execute dispatches a command and wraps the outcome in an Ack.
func Execute(eng Commander, cmd Command) Ack {
	ack := Ack{RequestID: cmd.RequestID, Command: cmd.Type}
	result, err := Dispatch(eng, cmd)
	if err != nil {
		ack.Error = err.Error()
		return ack
	}
	ack.OK = true
	ack.Result = result
	return ack
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.cfg.ClientSendBuffer),
	}
}

// Register adds the client to the hub. It reports false once the hub has
// stopped.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

// enqueue offers a message without blocking. Only the hub goroutine closes
// send, so callers on other goroutines must hold hub.mu.
func (c *Client) enqueue(msg []byte) bool {
	if msg == nil {
		return false
	}
	select {
	case c.send <- msg:
		c.hub.recordOut()
		return true
	default:
		return false
	}
}

// reply sends an Ack to this client only.
func (c *Client) reply(ack Ack) {
	msg := c.hub.encode(MsgTypeAck, ack)
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	if !c.enqueue(msg) {
		c.hub.logger.Warn("Dropping ACK for slow client")
	}
}

// ReadPump pumps commands from the websocket connection to the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Err(err, "websocket read failed")
				if c.hub.metrics != nil {
					c.hub.metrics.RecordWSError()
				}
			}
			break
		}
		if c.hub.metrics != nil {
			c.hub.metrics.RecordWSMessage(true)
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("Failed to parse Command from WebSocket: " + err.Error())
			c.reply(Ack{Error: "malformed command"})
			continue
		}

		ack := Execute(c.hub.engine, cmd)
		if ack.OK {
			c.hub.logger.Event("PLAYER_"+cmd.Type, cmd.MissionID, "ok")
		} else {
			c.hub.logger.Event("PLAYER_"+cmd.Type, cmd.MissionID, "rejected: "+ack.Error)
		}
		c.reply(ack)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
