// Package scheduler periodically refreshes the provider-backed datasets and
// announces each refresh to stream subscribers.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"trendsv1/internal/dataset"
	"trendsv1/internal/metrics"
	"trendsv1/internal/notification"
)

// DefaultStaleAfter is how old a source's newest point may be before the
// refresh raises a warning.
const DefaultStaleAfter = 48 * time.Hour

// Publisher delivers a notification on a dataset channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte)
}

// Notice is the stream message sent for every refreshed dataset. Clients
// refetch the data over REST.
type Notice struct {
	Dataset     dataset.ID `json:"dataset"`
	Source      dataset.ID `json:"source"`
	Points      int        `json:"points"`
	LastTS      int64      `json:"last_ts,omitempty"`
	LastValue   float64    `json:"last_value,omitempty"`
	RefreshedAt int64      `json:"refreshed_at"`
}

// Refresher runs dataset refreshes on a cron schedule.
type Refresher struct {
	Cron    *cron.Cron
	catalog *dataset.Catalog
	pub     Publisher
	health  *metrics.HealthStatus
	prom    *metrics.Metrics
	ctx     context.Context
	now     func() time.Time

	// Alerts receives empty and stale source warnings. Optional.
	Alerts     notification.Notifier
	StaleAfter time.Duration

	running sync.Mutex
}

// New creates a Refresher. pub, health and prom may be nil.
func New(ctx context.Context, c *dataset.Catalog, pub Publisher, health *metrics.HealthStatus, prom *metrics.Metrics) *Refresher {
	return &Refresher{
		Cron:       cron.New(cron.WithSeconds()),
		catalog:    c,
		pub:        pub,
		health:     health,
		prom:       prom,
		ctx:        ctx,
		now:        time.Now,
		StaleAfter: DefaultStaleAfter,
	}
}

// Register schedules the refresh with a six-field cron spec.
func (r *Refresher) Register(spec string) error {
	if _, err := r.Cron.AddFunc(spec, r.RunNow); err != nil {
		return fmt.Errorf("register refresh task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (r *Refresher) Start() {
	r.Cron.Start()
	slog.Info("scheduler: started")
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.Cron.Stop().Done()
	slog.Info("scheduler: stopped")
}

// RunNow refreshes every source. A run that starts while another is in
// progress is skipped.
func (r *Refresher) RunNow() {
	if !r.running.TryLock() {
		slog.Warn("scheduler: previous refresh still running, skipping")
		r.prom.IncRefresh("skipped")
		return
	}
	defer r.running.Unlock()

	start := r.now()
	failed := 0
	for _, id := range dataset.Sources {
		if r.ctx.Err() != nil {
			return
		}
		if !r.refresh(id) {
			failed++
		}
	}

	if r.health != nil {
		r.health.MarkRefresh(r.now())
	}
	slog.Info("scheduler: refresh complete",
		"sources", len(dataset.Sources), "empty", failed, "took", r.now().Sub(start))
}

// refresh updates one source and notifies its dependents. It reports false
// when the source has no data at all.
func (r *Refresher) refresh(id dataset.ID) bool {
	src := r.catalog.Source(id)
	if src == nil {
		return false
	}
	series := src.Refresh(r.ctx)
	if series.Empty() {
		slog.Warn("scheduler: source has no data", "dataset", id.String())
		r.prom.IncRefresh("empty")
		r.alert(notification.Alert{
			Level:   notification.AlertCritical,
			Title:   "dataset has no data",
			Message: "provider fetch failed and no stored history is available",
			Dataset: id.String(),
		})
		return false
	}
	r.prom.IncRefresh("ok")

	last := series.Points[series.Len()-1]
	if age := r.now().Sub(last.Time()); r.StaleAfter > 0 && age > r.StaleAfter {
		r.alert(notification.Alert{
			Level:   notification.AlertWarning,
			Title:   "dataset is stale",
			Message: fmt.Sprintf("newest point is %s old (%s)", age.Round(time.Hour), last.Time().Format(time.DateOnly)),
			Dataset: id.String(),
		})
	}

	if r.pub == nil {
		return true
	}
	for _, dep := range r.catalog.Dependents(id) {
		n := Notice{
			Dataset:     dep,
			Source:      id,
			Points:      series.Len(),
			LastTS:      last.TS,
			LastValue:   last.Value,
			RefreshedAt: r.now().UnixMilli(),
		}
		b, err := json.Marshal(n)
		if err != nil {
			continue
		}
		r.pub.Publish(r.ctx, dep.String(), b)
	}
	return true
}

func (r *Refresher) alert(a notification.Alert) {
	if r.Alerts == nil {
		return
	}
	if err := r.Alerts.Send(r.ctx, a); err != nil {
		slog.Warn("scheduler: alert delivery failed", "title", a.Title, "error", err)
	}
}
