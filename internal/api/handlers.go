package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"trendsv1/internal/dataset"
	"trendsv1/internal/indexer"
	"trendsv1/internal/logger"
	"trendsv1/internal/metrics"
	"trendsv1/internal/model"
)

// DefaultDays is used when the days parameter is absent.
const DefaultDays = 365

type handlers struct {
	svc   *dataset.Service
	cache model.ResponseCache
	prom  *metrics.Metrics
}

type datasetInfo struct {
	ID       dataset.ID     `json:"id"`
	Metadata model.Metadata `json:"metadata"`
}

func (h *handlers) datasets(w http.ResponseWriter, r *http.Request) {
	meta := h.svc.Metadata()
	out := make([]datasetInfo, 0, len(meta))
	for _, id := range dataset.All {
		out = append(out, datasetInfo{ID: id, Metadata: meta[id]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) data(w http.ResponseWriter, r *http.Request) {
	id, days, ok := parseCommon(w, r)
	if !ok {
		return
	}
	key := fmt.Sprintf("%s_%s", id, days)
	h.serveCached(w, r, key, func(ctx context.Context) (model.Payload, error) {
		return h.svc.GetSeries(ctx, id, days)
	})
}

func (h *handlers) indexed(w http.ResponseWriter, r *http.Request) {
	id, days, ok := parseCommon(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("mode") == "change" {
		key := fmt.Sprintf("%s_%s_change", id, days)
		h.serveCached(w, r, key, func(ctx context.Context) (model.Payload, error) {
			return h.svc.GetPercentChange(ctx, id, days)
		})
		return
	}
	baseline := indexer.DefaultBaseline
	if raw := r.URL.Query().Get("baseline"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "baseline must be a positive number")
			return
		}
		baseline = v
	}
	key := fmt.Sprintf("%s_%s_indexed_%g", id, days, baseline)
	h.serveCached(w, r, key, func(ctx context.Context) (model.Payload, error) {
		return h.svc.GetIndexedSeries(ctx, id, days, baseline)
	})
}

// serveCached answers from a fresh cache entry when possible. Otherwise it
// computes the payload; an empty result is replaced by a stale entry when
// one exists, and only non-empty results are cached.
func (h *handlers) serveCached(w http.ResponseWriter, r *http.Request, key string, compute func(context.Context) (model.Payload, error)) {
	ctx := r.Context()
	var (
		cached      []byte
		fresh, have bool
	)
	if h.cache != nil {
		cached, fresh, have = h.cache.Get(ctx, key)
	}
	if have && fresh {
		h.prom.ObserveCacheLookup("hit")
		writeRaw(w, "HIT", cached)
		return
	}

	p, err := compute(ctx)
	if err != nil {
		if errors.Is(err, dataset.ErrUnknownDataset) || errors.Is(err, dataset.ErrNotSeries) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("api: compute payload", append(logger.LogWithTrace(ctx), "key", key, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if p.Data == nil || p.Data.Len() == 0 {
		if have {
			h.prom.ObserveCacheLookup("stale")
			slog.Warn("api: empty payload, serving stale cache entry", append(logger.LogWithTrace(ctx), "key", key)...)
			writeRaw(w, "STALE", cached)
			return
		}
	}

	h.prom.ObserveCacheLookup("miss")
	body, err := json.Marshal(p)
	if err != nil {
		slog.Error("api: encode payload", append(logger.LogWithTrace(ctx), "key", key, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if h.cache != nil && p.Data != nil && p.Data.Len() > 0 {
		h.cache.Set(ctx, key, body)
	}
	writeRaw(w, "MISS", body)
}

// parseCommon reads dataset and days, writing a 400 on failure.
func parseCommon(w http.ResponseWriter, r *http.Request) (dataset.ID, model.Days, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return "", model.Days{}, false
	}
	q := r.URL.Query()
	id, err := dataset.ParseID(q.Get("dataset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", model.Days{}, false
	}
	days := model.Days{N: DefaultDays}
	if raw := q.Get("days"); raw != "" {
		if days, err = model.ParseDays(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return "", model.Days{}, false
		}
	}
	return id, days, true
}

func writeRaw(w http.ResponseWriter, cacheState string, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheState)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
