package model

import "context"

// ── Storage and fetch ports ──
// These interfaces decouple the dataset pipeline from concrete storage
// (SQLite, Redis) and from provider HTTP clients.

// RawRecord is one provider row before normalization: [ts, value] or
// [ts, open, high, low, close, volume]. Missing or non-numeric cells are NaN.
type RawRecord []float64

// RawSeries is an unnormalized provider payload.
type RawSeries []RawRecord

// FetchResult is what an upstream collaborator returns for get_data(days).
type FetchResult struct {
	Data     RawSeries
	Metadata map[string]string
}

// Fetcher retrieves raw data from an upstream provider. Any error is a
// fetch failure; callers fall back to the historical store.
type Fetcher interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// GetData fetches roughly the last `days` days of data.
	GetData(ctx context.Context, days Days) (FetchResult, error)
}

// HistoryStore persists complete canonical series by name. Save is a full
// overwrite: concurrent writers to the same name race and the later one wins.
type HistoryStore interface {
	// LoadHistoricalData returns the stored series, or an empty one.
	LoadHistoricalData(ctx context.Context, name string) (Series, error)

	// SaveHistoricalData replaces the stored series.
	SaveHistoricalData(ctx context.Context, name string, s Series) error

	// Close releases underlying resources.
	Close() error
}

// CoverageStore is implemented by history stores that remember whether a
// series already holds everything its provider offers. Without it an
// unbounded ("max") request always refetches the full history.
type CoverageStore interface {
	MarkFullHistory(ctx context.Context, name string) error
	HasFullHistory(ctx context.Context, name string) (bool, error)
}

// ResponseCache stores encoded responses for a short TTL.
type ResponseCache interface {
	// Get returns the cached bytes. fresh is false when the entry is past
	// its TTL but still retained as a stale fallback.
	Get(ctx context.Context, key string) (data []byte, fresh bool, ok bool)

	// Set stores bytes under key.
	Set(ctx context.Context, key string, data []byte)
}
