package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"trendsv1/internal/metrics"
)

type envelope struct {
	Channel    string          `json:"channel"`
	Data       json.RawMessage `json:"data"`
	TS         string          `json:"ts"`
	Seq        int64           `json:"seq"`
	ChannelSeq int64           `json:"channel_seq"`
	Initial    bool            `json:"initial"`
}

func TestBuildEnvelope(t *testing.T) {
	data := []byte(`{"dataset":"btc","points":365,"last_ts":1710028800000}`)
	now := time.Date(2024, 3, 10, 0, 15, 0, 0, time.UTC)

	var env envelope
	if err := json.Unmarshal(buildEnvelope("btc", data, now, 42, 7), &env); err != nil {
		t.Fatalf("envelope is not valid JSON: %v", err)
	}
	if env.Channel != "btc" || env.Seq != 42 || env.ChannelSeq != 7 {
		t.Errorf("unexpected envelope: %+v", env)
	}
	parsed, err := time.Parse(time.RFC3339Nano, env.TS)
	if err != nil || !parsed.Equal(now) {
		t.Errorf("ts: got %q (%v)", env.TS, err)
	}
	if string(env.Data) != string(data) {
		t.Errorf("data: got %s", env.Data)
	}
}

// fakeClient registers a Client with no connection; only its send queue is
// exercised.
func fakeClient(h *Hub, subs ...string) *Client {
	c := &Client{hub: h, send: make(chan []byte, 8), subs: map[string]bool{}}
	for _, s := range subs {
		c.subs[s] = true
	}
	h.register(c)
	return c
}

func drain(c *Client) []envelope {
	var out []envelope
	for {
		select {
		case b := <-c.send:
			var env envelope
			_ = json.Unmarshal(b, &env)
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestBroadcast_FiltersBySubscription(t *testing.T) {
	h := NewHub(nil, nil)
	all := fakeClient(h)
	btcOnly := fakeClient(h, "btc")

	h.broadcast("btc", []byte(`{"n":1}`))
	h.broadcast("gold", []byte(`{"n":2}`))

	if got := drain(all); len(got) != 2 {
		t.Errorf("unsubscribed client: got %d messages, want 2", len(got))
	}
	got := drain(btcOnly)
	if len(got) != 1 || got[0].Channel != "btc" {
		t.Errorf("btc subscriber: got %+v", got)
	}
}

func TestBroadcast_SequencesAndReplay(t *testing.T) {
	h := NewHub(nil, nil)
	for i := 0; i < 3; i++ {
		h.broadcast("btc", []byte(`{}`))
	}
	h.broadcast("eth", []byte(`{}`))

	if seq := h.GetChannelSeq("btc"); seq != 3 {
		t.Errorf("btc channel seq: got %d, want 3", seq)
	}
	msgs := h.GetReplayRange("btc", 2, 3)
	if len(msgs) != 2 {
		t.Fatalf("replay: got %d, want 2", len(msgs))
	}
	var env envelope
	_ = json.Unmarshal(msgs[1], &env)
	if env.ChannelSeq != 3 || env.Seq != 3 {
		t.Errorf("last replayed: %+v", env)
	}
	if h.GetReplayRange("gold", 1, 10) != nil {
		t.Errorf("unknown channel should have no replay")
	}
}

func TestPublish_WithoutRedisBroadcastsLocally(t *testing.T) {
	h := NewHub(nil, nil)
	c := fakeClient(h)
	h.Publish(context.Background(), "obv_btc", []byte(`{"ok":true}`))
	if got := drain(c); len(got) != 1 || got[0].Channel != "obv_btc" {
		t.Errorf("got %+v", got)
	}
	if latest := h.GetLatestAll(); string(latest["obv_btc"]) != `{"ok":true}` {
		t.Errorf("latest: %v", latest)
	}
}

func TestRemoveClient_UpdatesGauge(t *testing.T) {
	prom := metrics.NewMetrics(prometheus.NewRegistry())
	h := NewHub(nil, prom)
	c := fakeClient(h)
	fakeClient(h)
	if got := testutil.ToFloat64(prom.WSClients); got != 2 {
		t.Errorf("gauge: got %v, want 2", got)
	}
	h.RemoveClient(c)
	h.RemoveClient(c)
	if got := testutil.ToFloat64(prom.WSClients); got != 1 {
		t.Errorf("gauge after remove: got %v, want 1", got)
	}
}

func TestStream_EndToEnd(t *testing.T) {
	h := NewHub(nil, nil)
	h.broadcast("btc", []byte(`{"seed":true}`))

	mux := http.NewServeMux()
	RegisterRoutes(mux, h)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial envelope
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if !initial.Initial || initial.Channel != "btc" {
		t.Errorf("initial state: %+v", initial)
	}

	if err := conn.WriteJSON(ClientMsg{Type: "SUBSCRIBE", Datasets: []string{"gold"}, ReqID: "r1"}); err != nil {
		t.Fatal(err)
	}
	var ack struct {
		Type     string   `json:"type"`
		ReqID    string   `json:"req_id"`
		Datasets []string `json:"datasets"`
	}
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.Type != "ack" || ack.ReqID != "r1" || len(ack.Datasets) != 1 || ack.Datasets[0] != "gold" {
		t.Errorf("ack: %+v", ack)
	}

	h.broadcast("btc", []byte(`{"skip":true}`))
	h.broadcast("gold", []byte(`{"want":true}`))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatal(err)
	}
	if env.Channel != "gold" {
		t.Errorf("expected only the subscribed channel, got %q", env.Channel)
	}

	if err := conn.WriteJSON(ClientMsg{Type: "SUBSCRIBE", Datasets: []string{"doge"}}); err != nil {
		t.Fatal(err)
	}
	var e struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatal(err)
	}
	if e.Type != "error" || !strings.Contains(e.Error, "unknown dataset") {
		t.Errorf("expected unknown dataset error, got %+v", e)
	}
}

func TestMissedEndpoint(t *testing.T) {
	h := NewHub(nil, nil)
	h.broadcast("btc", []byte(`{}`))
	h.broadcast("btc", []byte(`{}`))

	mux := http.NewServeMux()
	RegisterRoutes(mux, h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stream/missed?dataset=btc&from=1&to=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var body struct {
		ChannelSeq int64             `json:"channel_seq"`
		Messages   []json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ChannelSeq != 2 || len(body.Messages) != 2 {
		t.Errorf("got %+v", body)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stream/missed?dataset=btc&from=5&to=1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad range: got %d", rec.Code)
	}
}

func TestStream_RejectsUnknownDatasetBeforeUpgrade(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewHub(nil, nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stream?dataset=doge", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}
