// Package gateway pushes dataset refresh notifications to WebSocket
// clients. When Redis is available, notifications travel through Redis
// PubSub so every API instance fans out the same stream.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"trendsv1/internal/metrics"
)

// channelPrefix namespaces refresh notifications on Redis PubSub.
const channelPrefix = "trends:pub:"

// replayCapacity is the number of envelopes kept per channel for backfill.
const replayCapacity = 200

// Hub tracks WebSocket clients and the latest notification per channel.
// Channels are dataset identifiers.
type Hub struct {
	Rdb  *goredis.Client // nil: in-process fan-out only
	prom *metrics.Metrics

	mu          sync.RWMutex
	clients     map[*Client]bool
	latest      map[string]latestEntry
	seq         int64
	channelSeqs map[string]int64
	replayBufs  map[string]*ReplayBuffer

	Router      *PubSubRouter
	Broadcaster *Broadcaster
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
	Seq  int64
}

// NewHub creates a Hub. rdb and prom may be nil.
func NewHub(rdb *goredis.Client, prom *metrics.Metrics) *Hub {
	h := &Hub{
		Rdb:         rdb,
		prom:        prom,
		clients:     make(map[*Client]bool),
		latest:      make(map[string]latestEntry),
		channelSeqs: make(map[string]int64),
		replayBufs:  make(map[string]*ReplayBuffer),
	}
	h.Router = NewPubSubRouter(h)
	h.Broadcaster = NewBroadcaster(h)
	return h
}

// Run consumes Redis PubSub until ctx is cancelled. Without Redis it only
// waits for cancellation.
func (h *Hub) Run(ctx context.Context) {
	if h.Rdb == nil {
		<-ctx.Done()
		return
	}
	h.Router.Run(ctx)
}

// Publish announces data on channel. With Redis the message goes through
// PubSub and comes back via Run; without it, it is broadcast directly.
func (h *Hub) Publish(ctx context.Context, channel string, data []byte) {
	if h.Rdb != nil {
		err := h.Rdb.Publish(ctx, channelPrefix+channel, data).Err()
		if err == nil {
			return
		}
		slog.Warn("gateway: redis publish failed, broadcasting locally", "channel", channel, "error", err)
	}
	h.broadcast(channel, data)
}

func (h *Hub) broadcast(channel string, data []byte) {
	h.Broadcaster.Broadcast(channel, data)
}

// HandleConn registers an upgraded connection subscribed to subs (none
// means every channel). lastTS (RFC 3339) limits the initial state to
// notifications newer than the client's last one.
func (h *Hub) HandleConn(conn *websocket.Conn, lastTS string, subs ...string) {
	client := newClient(h, conn)
	for _, s := range subs {
		client.subs[s] = true
	}
	h.register(client)
	go client.sendInitialState(lastTS)
	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.prom.SetWSClients(count)
	slog.Info("gateway: client connected", "clients", count)
}

// RemoveClient unregisters c and closes its send queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)
	h.prom.SetWSClients(count)
	slog.Info("gateway: client disconnected", "clients", count)
}

// GetLatestAll returns the latest notification per channel.
func (h *Hub) GetLatestAll() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		cp[k] = v.Data
	}
	return cp
}

// GetReplayRange returns buffered envelopes for channel with seq in
// [fromSeq, toSeq].
func (h *Hub) GetReplayRange(channel string, fromSeq, toSeq int64) [][]byte {
	h.mu.RLock()
	rb, ok := h.replayBufs[channel]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	entries := rb.Range(fromSeq, toSeq)
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Data
	}
	return out
}

// GetChannelSeq returns the current sequence number for channel.
func (h *Hub) GetChannelSeq(channel string) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.channelSeqs[channel]
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
