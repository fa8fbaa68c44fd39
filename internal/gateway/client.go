package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trendsv1/internal/dataset"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendQueue  = 64
)

// Client is a single WebSocket peer. A client without subscriptions
// receives every channel.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	subMu sync.RWMutex
	subs  map[string]bool
}

// ClientMsg is an inbound control message:
//
//	{"type":"SUBSCRIBE","datasets":["btc","rsi_btc"],"req_id":"1"}
//	{"type":"UNSUBSCRIBE","datasets":["btc"]}
//	{"ping":1712345678901}
type ClientMsg struct {
	Type     string   `json:"type"`
	Datasets []string `json:"datasets"`
	ReqID    string   `json:"req_id,omitempty"`
	Ping     int64    `json:"ping,omitempty"`
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, sendQueue),
		hub:  h,
		subs: make(map[string]bool),
	}
}

func (c *Client) sendInitialState(lastTS string) {
	var cutoff time.Time
	if lastTS != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, lastTS); err == nil {
			cutoff = parsed
		}
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	for channel, entry := range c.hub.latest {
		if !cutoff.IsZero() && !entry.TS.After(cutoff) {
			continue
		}
		if !c.matchesChannel(channel) {
			continue
		}
		env, _ := json.Marshal(map[string]any{
			"channel":     channel,
			"data":        entry.Data,
			"ts":          entry.TS.Format(time.RFC3339Nano),
			"channel_seq": entry.Seq,
			"initial":     true,
		})
		c.trySend(env)
	}
}

func (c *Client) trySend(msg []byte) {
	defer func() {
		// send is closed once the client is removed.
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMsg
		if json.Unmarshal(raw, &msg) != nil {
			c.sendError("", "invalid JSON")
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg ClientMsg) {
	switch msg.Type {
	case "SUBSCRIBE", "UNSUBSCRIBE":
		ids := make([]string, 0, len(msg.Datasets))
		for _, raw := range msg.Datasets {
			id, err := dataset.ParseID(raw)
			if err != nil {
				c.sendError(msg.ReqID, err.Error())
				return
			}
			ids = append(ids, id.String())
		}
		c.subMu.Lock()
		for _, id := range ids {
			if msg.Type == "SUBSCRIBE" {
				c.subs[id] = true
			} else {
				delete(c.subs, id)
			}
		}
		c.subMu.Unlock()
		slog.Debug("gateway: subscriptions changed", "op", msg.Type, "datasets", ids)
		c.sendJSON(map[string]any{"type": "ack", "req_id": msg.ReqID, "datasets": c.subscriptions()})
	default:
		if msg.Ping > 0 {
			c.sendJSON(map[string]any{"type": "pong", "ping": msg.Ping, "server_ts": time.Now().UnixMilli()})
			return
		}
		c.sendError(msg.ReqID, "unknown message type "+msg.Type)
	}
}

func (c *Client) subscriptions() []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	out := make([]string, 0, len(c.subs))
	for _, id := range dataset.All {
		if c.subs[id.String()] {
			out = append(out, id.String())
		}
	}
	return out
}

// matchesChannel reports whether channel should be delivered to c.
func (c *Client) matchesChannel(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subs) == 0 || c.subs[channel]
}

func (c *Client) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.trySend(b)
}

func (c *Client) sendError(reqID, msg string) {
	c.sendJSON(map[string]any{"type": "error", "req_id": reqID, "error": msg})
}
