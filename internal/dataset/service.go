package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trendsv1/internal/indexer"
	"trendsv1/internal/model"
)

// Service is the presentation-layer entry point: get_series and
// get_indexed_series over the catalog.
type Service struct {
	catalog *Catalog
	now     func() time.Time
}

// NewService creates a Service over c.
func NewService(c *Catalog) *Service {
	return &Service{catalog: c, now: time.Now}
}

// Catalog returns the underlying catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// GetSeries returns the dataset's output trimmed to days. The only error
// is an unknown id; everything else degrades to an empty payload.
func (s *Service) GetSeries(ctx context.Context, id ID, days model.Days) (model.Payload, error) {
	ds, err := s.catalog.Get(id)
	if err != nil {
		return model.Payload{}, err
	}
	data := ds.Data(ctx, days)
	return model.Payload{
		Metadata: ds.Metadata(),
		Data:     days.Trim(data, s.now()),
	}, nil
}

// GetIndexedSeries is GetSeries passed through the indexer.
func (s *Service) GetIndexedSeries(ctx context.Context, id ID, days model.Days, baseline float64) (model.Payload, error) {
	p, err := s.GetSeries(ctx, id, days)
	if err != nil {
		return model.Payload{}, err
	}
	p.Data = indexer.IndexToBaseline(p.Data, baseline)
	p.Metadata.Indexed = true
	p.Metadata.Baseline = baseline
	p.Metadata.YAxisID = "indexed"
	p.Metadata.YAxisLabel = "Indexed"
	p.Metadata.Unit = ""
	return p, nil
}

// ErrNotSeries is returned when a transform needs a single line but the
// dataset produces bands, multiple lines or a trend-annotated series.
var ErrNotSeries = errors.New("dataset is not a single series")

// GetPercentChange is GetSeries expressed as percent change from the first
// point of the window.
func (s *Service) GetPercentChange(ctx context.Context, id ID, days model.Days) (model.Payload, error) {
	p, err := s.GetSeries(ctx, id, days)
	if err != nil {
		return model.Payload{}, err
	}
	series, ok := p.Data.(model.Series)
	if !ok {
		return model.Payload{}, fmt.Errorf("%w: %s", ErrNotSeries, id)
	}
	p.Data = indexer.PercentageChange(series)
	p.Metadata.YAxisID = "change"
	p.Metadata.YAxisLabel = "Change"
	p.Metadata.Unit = "%"
	return p, nil
}

// Metadata returns the metadata of every dataset keyed by id.
func (s *Service) Metadata() map[ID]model.Metadata {
	out := make(map[ID]model.Metadata, len(All))
	for _, id := range All {
		if ds, err := s.catalog.Get(id); err == nil {
			out[id] = ds.Metadata()
		}
	}
	return out
}
