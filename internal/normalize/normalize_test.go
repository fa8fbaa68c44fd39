package normalize

import (
	"math"
	"testing"

	"trendsv1/internal/model"
)

const day = model.DayMs

func assertCanonical(t *testing.T, s model.Series) {
	t.Helper()
	for i, p := range s.Points {
		if p.TS%day != 0 {
			t.Errorf("point %d: ts %d not midnight-aligned", i, p.TS)
		}
		if i > 0 && p.TS != s.Points[i-1].TS+day {
			t.Errorf("point %d: ts %d does not follow %d by one day", i, p.TS, s.Points[i-1].TS)
		}
	}
}

func TestNormalize_GapFillLinear(t *testing.T) {
	s := Normalize(model.RawSeries{{0, 10}, {float64(3 * day), 40}})

	if s.Kind != model.StructureSimple {
		t.Fatalf("kind: got %v, want simple", s.Kind)
	}
	want := []float64{10, 20, 30, 40}
	if s.Len() != len(want) {
		t.Fatalf("len: got %d, want %d", s.Len(), len(want))
	}
	for i, w := range want {
		if s.Points[i].TS != int64(i)*day {
			t.Errorf("point %d: ts %d, want %d", i, s.Points[i].TS, int64(i)*day)
		}
		if math.Abs(s.Points[i].Value-w) > 1e-9 {
			t.Errorf("point %d: value %.4f, want %.4f", i, s.Points[i].Value, w)
		}
	}
	assertCanonical(t, s)
}

func TestNormalize_SnapsToMidnightAndSorts(t *testing.T) {
	// 2024-01-02 15:30 UTC, 2024-01-01 08:00 UTC (out of order, intra-day)
	jan1 := int64(1704067200000)
	raw := model.RawSeries{
		{float64(jan1 + day + 15*3600*1000 + 30*60*1000), 2},
		{float64(jan1 + 8*3600*1000), 1},
	}
	s := Normalize(raw)
	if s.Len() != 2 {
		t.Fatalf("len: got %d, want 2", s.Len())
	}
	if s.Points[0].TS != jan1 || s.Points[1].TS != jan1+day {
		t.Errorf("timestamps: got %d,%d want %d,%d", s.Points[0].TS, s.Points[1].TS, jan1, jan1+day)
	}
	if s.Points[0].Value != 1 || s.Points[1].Value != 2 {
		t.Errorf("values out of order: %v", s.Values())
	}
	assertCanonical(t, s)
}

func TestNormalize_SecondsTimestamps(t *testing.T) {
	// 2024-01-01 in seconds
	s := Normalize(model.RawSeries{{1704067200, 5}, {1704153600, 6}})
	if s.Len() != 2 {
		t.Fatalf("len: got %d, want 2", s.Len())
	}
	if s.Points[0].TS != 1704067200000 {
		t.Errorf("seconds not converted: got %d", s.Points[0].TS)
	}
}

func TestNormalize_FirstWinsSameDay(t *testing.T) {
	raw := model.RawSeries{
		{float64(day + 1000), 100},
		{float64(day + 5000), 999},
	}
	s := Normalize(raw)
	if s.Len() != 1 {
		t.Fatalf("len: got %d, want 1", s.Len())
	}
	if s.Points[0].Value != 100 {
		t.Errorf("expected first record to win, got %.2f", s.Points[0].Value)
	}
}

func TestNormalize_OHLCV(t *testing.T) {
	raw := model.RawSeries{
		{0, 100, 110, 90, 105, 1000},
		{float64(day), 105, 100, 95, 110, 1500}, // high < close: dropped
		{float64(2 * day), 110, 120, 100, 108, 2000},
		{float64(3 * day), 5}, // width mismatch: dropped
	}
	s := Normalize(raw)
	if s.Kind != model.StructureOHLCV {
		t.Fatalf("kind: got %v, want OHLCV", s.Kind)
	}
	if s.Len() != 3 {
		t.Fatalf("len: got %d, want 3 (one gap-filled)", s.Len())
	}

	filled := s.Points[1]
	wantClose := (105.0 + 108.0) / 2
	if math.Abs(filled.Value-wantClose) > 1e-9 {
		t.Errorf("filled close: got %.4f, want %.4f", filled.Value, wantClose)
	}
	b := filled.Bar
	if b.Open != b.Close || b.High != b.Close || b.Low != b.Close || b.Volume != 0 {
		t.Errorf("filled bar should be flat with zero volume, got %+v", b)
	}
	assertCanonical(t, s)
}

func TestNormalize_DetectsWidthFromFirstValidRecord(t *testing.T) {
	raw := model.RawSeries{
		{0, math.NaN()},                   // not structurally valid
		{0, 1, 2, 0.5, 1.5, 10},           // first valid: OHLCV
		{float64(day), 7},                 // mismatched width
		{float64(day), 1, 2, 0.5, 1.5, 1}, // kept
	}
	s := Normalize(raw)
	if s.Kind != model.StructureOHLCV || s.Len() != 2 {
		t.Fatalf("got kind=%v len=%d, want OHLCV len=2", s.Kind, s.Len())
	}
}

func TestNormalize_EmptyAndInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  model.RawSeries
	}{
		{"nil", nil},
		{"empty", model.RawSeries{}},
		{"bad widths", model.RawSeries{{1, 2, 3}, {4}}},
		{"all nan", model.RawSeries{{math.NaN(), 1}, {0, math.Inf(1)}}},
		{"invalid bars", model.RawSeries{{0, 10, 5, 8, 9, 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Normalize(tc.raw)
			if !s.Empty() {
				t.Errorf("expected empty series, got %d points", s.Len())
			}
		})
	}
}

func TestNormalize_NegativeVolumeDropped(t *testing.T) {
	s := Normalize(model.RawSeries{{0, 1, 2, 0.5, 1.5, -1}})
	if !s.Empty() {
		t.Errorf("negative volume bar should be dropped")
	}
}

func TestToMillis(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{86400000, 86400000},
		{1704067200, 1704067200000},
		{1704067200000, 1704067200000},
	}
	for _, tc := range cases {
		if got := ToMillis(tc.in); got != tc.want {
			t.Errorf("ToMillis(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
