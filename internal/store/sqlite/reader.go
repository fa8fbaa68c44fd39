package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trendsv1/internal/model"
)

// LoadHistoricalData returns the stored series for name, or an empty series
// when nothing has been saved under it yet.
func (s *Store) LoadHistoricalData(ctx context.Context, name string) (model.Series, error) {
	var structure string
	err := s.db.QueryRowContext(ctx, `SELECT structure FROM series WHERE name = ?`, name).Scan(&structure)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Series{}, nil
	}
	if err != nil {
		return model.Series{}, fmt.Errorf("sqlite read %s: %w", name, err)
	}

	kind := parseStructure(structure)
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, value, open, high, low, volume
		FROM series_points
		WHERE name = ?
		ORDER BY ts ASC
	`, name)
	if err != nil {
		return model.Series{}, fmt.Errorf("sqlite query %s: %w", name, err)
	}
	defer rows.Close()

	out := model.Series{Kind: kind}
	for rows.Next() {
		var (
			ts                      int64
			value                   float64
			open, high, low, volume sql.NullFloat64
		)
		if err := rows.Scan(&ts, &value, &open, &high, &low, &volume); err != nil {
			return model.Series{}, fmt.Errorf("sqlite scan %s: %w", name, err)
		}
		if kind == model.StructureOHLCV {
			out.Points = append(out.Points, model.Bar(ts, model.OHLCV{
				Open: open.Float64, High: high.Float64, Low: low.Float64, Close: value, Volume: volume.Float64,
			}))
		} else {
			out.Points = append(out.Points, model.Simple(ts, value))
		}
	}
	return out, rows.Err()
}

// HasFullHistory reports whether MarkFullHistory was called for name.
func (s *Store) HasFullHistory(ctx context.Context, name string) (bool, error) {
	var full bool
	err := s.db.QueryRowContext(ctx, `SELECT full_history FROM series WHERE name = ?`, name).Scan(&full)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite read %s: %w", name, err)
	}
	return full, nil
}

// LastTimestamp returns the newest stored timestamp (ms) for name.
// Returns 0 if nothing is stored.
func (s *Store) LastTimestamp(ctx context.Context, name string) (int64, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(ts) FROM series_points WHERE name = ?`, name).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Names lists every stored series name.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM series ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list series: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func parseStructure(s string) model.Structure {
	switch s {
	case model.StructureOHLCV.String():
		return model.StructureOHLCV
	case model.StructureSimple.String():
		return model.StructureSimple
	default:
		return model.StructureUnknown
	}
}
