package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"trendsv1/internal/dataset"
	"trendsv1/internal/metrics"
	"trendsv1/internal/model"
	"trendsv1/internal/notification"
)

type alertSink struct {
	mu     sync.Mutex
	alerts []notification.Alert
}

func (s *alertSink) Send(_ context.Context, a notification.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return nil
}

type stubFetcher struct {
	rows model.RawSeries
	err  error
}

func (f stubFetcher) Name() string { return "stub" }

func (f stubFetcher) GetData(context.Context, model.Days) (model.FetchResult, error) {
	return model.FetchResult{Data: f.rows}, f.err
}

type memStore struct {
	mu   sync.Mutex
	data map[string]model.Series
}

func (m *memStore) LoadHistoricalData(_ context.Context, name string) (model.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[name], nil
}

func (m *memStore) SaveHistoricalData(_ context.Context, name string, s model.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = s
	return nil
}

func (m *memStore) Close() error { return nil }

type recorder struct {
	mu   sync.Mutex
	msgs map[string][]Notice
}

func (r *recorder) Publish(_ context.Context, channel string, data []byte) {
	var n Notice
	_ = json.Unmarshal(data, &n)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs[channel] = append(r.msgs[channel], n)
}

func TestRefresher_RunNow(t *testing.T) {
	end := model.DayStart(time.Now().UnixMilli())
	gold := model.RawSeries{
		{float64(end - model.DayMs), 2000},
		{float64(end), 2010},
	}
	offline := stubFetcher{err: errors.New("offline")}
	store := &memStore{data: map[string]model.Series{}}
	catalog := dataset.NewCatalog(dataset.Deps{
		Store:    store,
		Fetchers: dataset.Fetchers{BTC: offline, ETH: offline, Gold: stubFetcher{rows: gold}, DVOLBTC: offline},
		Settings: dataset.DefaultSettings(),
	})

	pub := &recorder{msgs: map[string][]Notice{}}
	health := metrics.NewHealthStatus()
	prom := metrics.NewMetrics(prometheus.NewRegistry())
	r := New(context.Background(), catalog, pub, health, prom)
	sink := &alertSink{}
	r.Alerts = sink

	r.RunNow()

	if len(sink.alerts) != 3 {
		t.Errorf("alerts: got %d, want 3 (one per empty source)", len(sink.alerts))
	}
	for _, a := range sink.alerts {
		if a.Level != notification.AlertCritical || a.Dataset == "gold" {
			t.Errorf("unexpected alert: %+v", a)
		}
	}

	if store.data["gold"].Len() != 2 {
		t.Errorf("gold not persisted: %+v", store.data["gold"])
	}
	got := pub.msgs["gold"]
	if len(got) != 1 || got[0].LastValue != 2010 || got[0].LastTS != end || got[0].Points != 2 {
		t.Errorf("gold notice: %+v", got)
	}
	if len(pub.msgs) != 1 {
		t.Errorf("only gold should be announced, got channels %v", pub.msgs)
	}
	if got := testutil.ToFloat64(prom.RefreshRuns.WithLabelValues("empty")); got != 3 {
		t.Errorf("empty refreshes: got %v, want 3", got)
	}
	if got := testutil.ToFloat64(prom.RefreshRuns.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok refreshes: got %v, want 1", got)
	}
	if health.LastRefresh().IsZero() {
		t.Errorf("health refresh time not recorded")
	}
}

func TestRefresher_SkipsOverlappingRuns(t *testing.T) {
	prom := metrics.NewMetrics(prometheus.NewRegistry())
	r := New(context.Background(), nil, nil, nil, prom)
	r.running.Lock()
	r.RunNow()
	r.running.Unlock()
	if got := testutil.ToFloat64(prom.RefreshRuns.WithLabelValues("skipped")); got != 1 {
		t.Errorf("skipped: got %v, want 1", got)
	}
}

func TestRefresher_Register(t *testing.T) {
	r := New(context.Background(), nil, nil, nil, nil)
	if err := r.Register("0 */15 * * * *"); err != nil {
		t.Errorf("valid spec: %v", err)
	}
	if err := r.Register("every now and then"); err == nil {
		t.Errorf("expected error for invalid spec")
	}
}

func TestRefresher_StaleAlert(t *testing.T) {
	old := model.DayStart(time.Now().Add(-10 * 24 * time.Hour).UnixMilli())
	offline := stubFetcher{err: errors.New("offline")}
	catalog := dataset.NewCatalog(dataset.Deps{
		Store:    &memStore{data: map[string]model.Series{}},
		Fetchers: dataset.Fetchers{BTC: offline, ETH: offline, Gold: stubFetcher{rows: model.RawSeries{{float64(old), 1}}}, DVOLBTC: offline},
		Settings: dataset.DefaultSettings(),
	})
	sink := &alertSink{}
	r := New(context.Background(), catalog, nil, nil, nil)
	r.Alerts = sink

	if !r.refresh(dataset.Gold) {
		t.Fatal("gold has data")
	}
	if len(sink.alerts) != 1 || sink.alerts[0].Level != notification.AlertWarning {
		t.Errorf("expected one stale warning, got %+v", sink.alerts)
	}
}
