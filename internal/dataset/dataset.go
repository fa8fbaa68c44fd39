// Package dataset wires providers, the historical store and the indicator
// library into the closed set of datasets served to the charting frontend.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trendsv1/internal/extract"
	"trendsv1/internal/indicator"
	"trendsv1/internal/merge"
	"trendsv1/internal/metrics"
	"trendsv1/internal/model"
	"trendsv1/internal/normalize"
	"trendsv1/internal/provider"
)

// requestPadding is added on top of an indicator's warm-up when asking the
// source for history, so the trimmed window starts fully populated.
const requestPadding = 10

// Dataset is the capability every catalog entry implements. Data never
// fails: the worst case is an empty payload.
type Dataset interface {
	Metadata() model.Metadata
	Data(ctx context.Context, days model.Days) model.Data
}

// seriesSource yields the canonical series an indicator is computed from.
type seriesSource interface {
	Series(ctx context.Context, days model.Days) model.Series
}

// ── Source ──

// Source is a provider-backed dataset with persisted history. Each call
// loads the stored series, fetches the missing or revisable window, merges
// and saves the whole series back.
type Source struct {
	id          ID
	fetcher     model.Fetcher
	history     model.HistoryStore
	meta        model.Metadata
	overlapDays int
	defaultDays int
	prom        *metrics.Metrics
	now         func() time.Time
}

func (s *Source) Metadata() model.Metadata { return s.meta }

func (s *Source) Data(ctx context.Context, days model.Days) model.Data {
	return s.Series(ctx, days)
}

// Series returns the merged canonical series. On fetch failure it falls
// back to stored history, which may be empty.
func (s *Source) Series(ctx context.Context, days model.Days) model.Series {
	existing := s.load(ctx)
	full := days.Max && s.hasFullHistory(ctx)
	window := s.plan(existing, days, full)

	return Then(s.fetch(ctx, window), func(fresh model.Series) Result[model.Series] {
		return Ok(s.commit(ctx, existing, fresh, window))
	}).OrElse(func(err error) model.Series {
		slog.Warn("dataset: fetch failed, serving stored history",
			"dataset", s.id.String(), "stored", existing.Len(), "error", err)
		s.prom.IncStoreFallback(s.id.String())
		return existing
	})
}

// Backfill fetches the whole window regardless of stored coverage and
// merges it into the store.
func (s *Source) Backfill(ctx context.Context, days model.Days) model.Series {
	existing := s.load(ctx)
	return Then(s.fetch(ctx, days), func(fresh model.Series) Result[model.Series] {
		return Ok(s.commit(ctx, existing, fresh, days))
	}).OrElse(func(err error) model.Series {
		slog.Error("dataset: backfill failed", "dataset", s.id.String(), "error", err)
		return existing
	})
}

// Refresh fetches and persists without a caller-imposed window.
func (s *Source) Refresh(ctx context.Context) model.Series {
	return s.Series(ctx, model.Days{N: s.defaultDays})
}

// plan picks the day count to request: the full requested window when
// stored history does not reach back far enough, otherwise only the
// trailing overlap. full means the store already holds the provider's
// entire history, so "max" needs only the overlap too.
func (s *Source) plan(existing model.Series, days model.Days, full bool) model.Days {
	now := s.now()
	if need, from := merge.NeedsOlderData(existing, days, now); need && !full {
		if days.Max {
			return model.MaxDays
		}
		return merge.FetchDays(from, now)
	}
	return merge.FetchDays(merge.FetchStart(existing, s.overlapDays, s.defaultDays, now), now)
}

// commit merges fresh into existing and saves the result. A successful
// unbounded fetch marks the series as holding full history.
func (s *Source) commit(ctx context.Context, existing, fresh model.Series, window model.Days) model.Series {
	merged := merge.Merge(existing, fresh, s.overlapDays)
	if s.save(ctx, merged) && window.Max {
		s.markFullHistory(ctx)
	}
	return merged
}

func (s *Source) fetch(ctx context.Context, days model.Days) Result[model.Series] {
	start := time.Now()
	res, err := s.fetcher.GetData(ctx, days)
	s.prom.ObserveFetch(s.fetcher.Name(), time.Since(start), err)
	if err != nil {
		return Fail[model.Series](err)
	}

	series := normalize.Normalize(res.Data)
	if series.Empty() {
		return Fail[model.Series](fmt.Errorf("%w: %s: no valid records in %d rows",
			provider.ErrFetch, s.fetcher.Name(), len(res.Data)))
	}
	slog.Debug("dataset: fetched", "dataset", s.id.String(), "days", days.String(),
		"rows", len(res.Data), "points", series.Len())
	return Ok(series)
}

func (s *Source) load(ctx context.Context) model.Series {
	existing, err := s.history.LoadHistoricalData(ctx, s.id.String())
	if err != nil {
		slog.Error("dataset: load history", "dataset", s.id.String(), "error", err)
		s.prom.IncStoreError("load")
		return model.Series{}
	}
	return existing
}

func (s *Source) save(ctx context.Context, series model.Series) bool {
	if ok, kind, msg := merge.ValidateDataStructure(series); !ok {
		slog.Warn("dataset: saving series that failed validation",
			"dataset", s.id.String(), "structure", kind.String(), "reason", msg)
	}
	start := time.Now()
	if err := s.history.SaveHistoricalData(ctx, s.id.String(), series); err != nil {
		slog.Error("dataset: save history", "dataset", s.id.String(), "error", err)
		s.prom.IncStoreError("save")
		return false
	}
	s.prom.ObserveStoreSave(time.Since(start))
	return true
}

func (s *Source) hasFullHistory(ctx context.Context) bool {
	cs, ok := s.history.(model.CoverageStore)
	if !ok {
		return false
	}
	full, err := cs.HasFullHistory(ctx, s.id.String())
	if err != nil {
		slog.Error("dataset: read coverage", "dataset", s.id.String(), "error", err)
		s.prom.IncStoreError("load")
		return false
	}
	return full
}

func (s *Source) markFullHistory(ctx context.Context) {
	cs, ok := s.history.(model.CoverageStore)
	if !ok {
		return
	}
	if err := cs.MarkFullHistory(ctx, s.id.String()); err != nil {
		slog.Error("dataset: mark full history", "dataset", s.id.String(), "error", err)
		s.prom.IncStoreError("save")
	}
}

// ── Derived ──

// Derived computes one indicator over a source series. The source is asked
// for the requested window plus warm-up and padding, and the indicator runs
// over exactly that window.
type Derived struct {
	id     ID
	source seriesSource
	cfg    indicator.Config
	meta   model.Metadata
	prom   *metrics.Metrics
	now    func() time.Time
}

func (d *Derived) Metadata() model.Metadata { return d.meta }

func (d *Derived) Data(ctx context.Context, days model.Days) model.Data {
	padded := days.Plus(d.cfg.Warmup() + requestPadding)
	src := d.source.Series(ctx, padded)
	if cutoff, bounded := padded.Cutoff(d.now()); bounded {
		src = src.Since(cutoff)
	}

	start := time.Now()
	out := indicator.Compute(d.cfg, src)
	d.prom.ObserveCompute(d.cfg.Name(), time.Since(start))

	if out.Len() == 0 && !src.Empty() {
		slog.Warn("dataset: indicator produced no output",
			"dataset", d.id.String(), "indicator", d.cfg.Name(), "input", src.Len())
	}
	return out
}

// ── Component ──

// Component projects one OHLCV field of a source.
type Component struct {
	id     ID
	source seriesSource
	field  extract.Field
	meta   model.Metadata
}

func (c *Component) Metadata() model.Metadata { return c.meta }

func (c *Component) Data(ctx context.Context, days model.Days) model.Data {
	return c.Series(ctx, days)
}

func (c *Component) Series(ctx context.Context, days model.Days) model.Series {
	return extract.Extract(c.source.Series(ctx, days), c.field)
}
