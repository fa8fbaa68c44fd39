package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"trendsv1/internal/dataset"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts the stream endpoint and its REST companions.
func RegisterRoutes(mux *http.ServeMux, hub *Hub) {
	// /api/v1/stream?dataset=btc&dataset=eth subscribes up front; without
	// dataset the client receives every channel until it sends SUBSCRIBE.
	mux.HandleFunc("/api/v1/stream", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var subs []string
		for _, raw := range q["dataset"] {
			id, err := dataset.ParseID(raw)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			subs = append(subs, id.String())
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("gateway: upgrade failed", "error", err)
			return
		}
		hub.HandleConn(conn, q.Get("last_ts"), subs...)
	})

	// Latest notification per dataset.
	mux.HandleFunc("/api/v1/stream/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.GetLatestAll())
	})

	// Gap backfill: /api/v1/stream/missed?dataset=btc&from=3&to=7
	mux.HandleFunc("/api/v1/stream/missed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query()
		id, err := dataset.ParseID(q.Get("dataset"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		from, err1 := strconv.ParseInt(q.Get("from"), 10, 64)
		to, err2 := strconv.ParseInt(q.Get("to"), 10, 64)
		if err1 != nil || err2 != nil || from > to {
			writeError(w, http.StatusBadRequest, "from and to must be integers with from <= to")
			return
		}
		msgs := hub.GetReplayRange(id.String(), from, to)
		out := make([]json.RawMessage, len(msgs))
		for i, m := range msgs {
			out[i] = m
		}
		json.NewEncoder(w).Encode(map[string]any{
			"dataset":     id,
			"channel_seq": hub.GetChannelSeq(id.String()),
			"messages":    out,
		})
	})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
