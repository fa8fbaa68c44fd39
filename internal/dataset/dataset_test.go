package dataset

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"trendsv1/internal/metrics"
	"trendsv1/internal/model"
)

const day = model.DayMs

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	name  string
	rows  model.RawSeries
	err   error
	calls []model.Days

	// windowed serves only the last days.N rows, like a real provider.
	windowed bool
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) GetData(_ context.Context, days model.Days) (model.FetchResult, error) {
	f.calls = append(f.calls, days)
	if f.err != nil {
		return model.FetchResult{}, f.err
	}
	if f.windowed && !days.Max && days.N < len(f.rows) {
		return model.FetchResult{Data: f.rows[len(f.rows)-days.N:]}, nil
	}
	return model.FetchResult{Data: f.rows}, nil
}

type memStore struct {
	mu    sync.Mutex
	data  map[string]model.Series
	full  map[string]bool
	saves int
}

func newMemStore() *memStore {
	return &memStore{data: map[string]model.Series{}, full: map[string]bool{}}
}

func (m *memStore) MarkFullHistory(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.full[name] = true
	return nil
}

func (m *memStore) HasFullHistory(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.full[name], nil
}

func (m *memStore) LoadHistoricalData(_ context.Context, name string) (model.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[name].Clone(), nil
}

func (m *memStore) SaveHistoricalData(_ context.Context, name string, s model.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.data[name] = s.Clone()
	return nil
}

func (m *memStore) Close() error { return nil }

// dailyBars returns n up-trending OHLCV rows ending on the day of testNow.
func dailyBars(n int) model.RawSeries {
	end := model.DayStart(testNow.UnixMilli())
	rows := make(model.RawSeries, 0, n)
	for i := 0; i < n; i++ {
		ts := end - int64(n-1-i)*day
		c := 100 + float64(i)
		rows = append(rows, model.RawRecord{float64(ts), c - 0.5, c + 1, c - 1, c, 10})
	}
	return rows
}

func dailyValues(n int, v float64) model.RawSeries {
	end := model.DayStart(testNow.UnixMilli())
	rows := make(model.RawSeries, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, model.RawRecord{float64(end - int64(n-1-i)*day), v + float64(i)})
	}
	return rows
}

type fixture struct {
	store *memStore
	btc   *fakeFetcher
	eth   *fakeFetcher
	gold  *fakeFetcher
	dvol  *fakeFetcher
	prom  *metrics.Metrics
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newMemStore(),
		btc:   &fakeFetcher{name: "binance", rows: dailyBars(400)},
		eth:   &fakeFetcher{name: "binance", rows: dailyBars(400)},
		gold:  &fakeFetcher{name: "coingecko", rows: dailyValues(400, 2000)},
		dvol:  &fakeFetcher{name: "deribit", rows: dailyValues(400, 40)},
		prom:  metrics.NewMetrics(prometheus.NewRegistry()),
	}
	c := NewCatalog(Deps{
		Store:    f.store,
		Fetchers: Fetchers{BTC: f.btc, ETH: f.eth, Gold: f.gold, DVOLBTC: f.dvol},
		Settings: DefaultSettings(),
		Metrics:  f.prom,
		Now:      func() time.Time { return testNow },
	})
	f.svc = NewService(c)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func TestResult_ThenOrElse(t *testing.T) {
	boom := errors.New("boom")
	got := Then(Ok(2), func(v int) Result[int] { return Ok(v * 10) }).OrElse(func(error) int { return -1 })
	if got != 20 {
		t.Errorf("ok path: got %d, want 20", got)
	}
	called := false
	got = Then(Fail[int](boom), func(v int) Result[int] { called = true; return Ok(v) }).
		OrElse(func(err error) int {
			if !errors.Is(err, boom) {
				t.Errorf("fallback got %v", err)
			}
			return -1
		})
	if got != -1 || called {
		t.Errorf("fail path: got %d, then called=%v", got, called)
	}
}

func TestCatalog_EveryIDResolves(t *testing.T) {
	f := newFixture(t)
	for _, id := range All {
		ds, err := f.svc.Catalog().Get(id)
		if err != nil || ds == nil {
			t.Errorf("%s: got (%v, %v)", id, ds, err)
			continue
		}
		if ds.Metadata().Label == "" {
			t.Errorf("%s: empty label", id)
		}
	}
	if _, err := f.svc.Catalog().Get("nope"); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("unknown id: got %v", err)
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID(" RSI_BTC "); err != nil || id != RSIBTC {
		t.Errorf("got (%q, %v)", id, err)
	}
	if _, err := ParseID("doge"); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("expected ErrUnknownDataset, got %v", err)
	}
}

func TestSource_FetchMergeSave(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.GetSeries(context.Background(), BTC, model.Days{N: 30})
	if err != nil {
		t.Fatal(err)
	}
	if n := p.Data.Len(); n < 30 || n > 31 {
		t.Errorf("trimmed length: got %d, want 30 or 31", n)
	}
	stored := f.store.data["btc"]
	if stored.Len() != 400 || stored.Kind != model.StructureOHLCV {
		t.Errorf("stored series: kind=%v len=%d, want OHLCV 400", stored.Kind, stored.Len())
	}
	if p.Metadata.DataStructure != model.StructureOHLCV.String() {
		t.Errorf("metadata structure: %q", p.Metadata.DataStructure)
	}
}

func TestSource_SecondCallFetchesOverlapOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.GetSeries(ctx, Gold, model.Days{N: 30}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GetSeries(ctx, Gold, model.Days{N: 30}); err != nil {
		t.Fatal(err)
	}
	if len(f.gold.calls) != 2 {
		t.Fatalf("calls: got %d, want 2", len(f.gold.calls))
	}
	if first, second := f.gold.calls[0], f.gold.calls[1]; second.N >= first.N {
		t.Errorf("second fetch should be the overlap window, got %v after %v", second, first)
	}
}

func TestSource_FallsBackToStoreOnFetchError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.GetSeries(ctx, Gold, model.Days{N: 30}); err != nil {
		t.Fatal(err)
	}
	saves := f.store.saves

	f.gold.err = errors.New("upstream 503")
	p, err := f.svc.GetSeries(ctx, Gold, model.Days{N: 30})
	if err != nil {
		t.Fatal(err)
	}
	if p.Data.Len() == 0 {
		t.Errorf("expected stored history on fetch failure")
	}
	if f.store.saves != saves {
		t.Errorf("failed fetch must not save")
	}
	if got := testutil.ToFloat64(f.prom.StoreFallbacks.WithLabelValues("gold")); got != 1 {
		t.Errorf("fallback counter: got %v, want 1", got)
	}
}

func TestSource_EmptyPayloadIsFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.gold.rows = model.RawSeries{{1, 2, 3}}
	p, err := f.svc.GetSeries(context.Background(), Gold, model.Days{N: 30})
	if err != nil {
		t.Fatal(err)
	}
	if p.Data.Len() != 0 {
		t.Errorf("expected empty payload, got %d points", p.Data.Len())
	}
	if f.store.saves != 0 {
		t.Errorf("nothing should be saved")
	}
}

func TestDerived_RSIWithinBoundsAndTrimmed(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.GetSeries(context.Background(), RSIBTC, model.Days{N: 60})
	if err != nil {
		t.Fatal(err)
	}
	s, ok := p.Data.(model.Series)
	if !ok {
		t.Fatalf("rsi data: got %T", p.Data)
	}
	if n := s.Len(); n < 60 || n > 61 {
		t.Errorf("rsi length: got %d, want 60 or 61", n)
	}
	for _, v := range s.Values() {
		if v < 0 || v > 100 {
			t.Fatalf("rsi out of range: %v", v)
		}
	}
	if f.btc.calls[0].N < 60+14 {
		t.Errorf("source should be asked for warm-up padding, got %v", f.btc.calls[0])
	}
}

func TestDerived_ShapesPerIndicator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.svc.GetSeries(ctx, MACDBTC, model.Days{N: 90})
	if _, ok := p.Data.(model.MultiLineSeries); !ok {
		t.Errorf("macd: got %T, want MultiLineSeries", p.Data)
	}
	p, _ = f.svc.GetSeries(ctx, BollingerETH, model.Days{N: 90})
	if _, ok := p.Data.(model.BandSeries); !ok {
		t.Errorf("bollinger: got %T, want BandSeries", p.Data)
	}
	p, _ = f.svc.GetSeries(ctx, IVRankBTC, model.Days{N: 30})
	if p.Data.Len() == 0 {
		t.Errorf("iv rank: expected points")
	}
}

func TestComponent_CloseOfBTC(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.GetSeries(context.Background(), CloseBTC, model.Days{N: 10})
	if err != nil {
		t.Fatal(err)
	}
	s := p.Data.(model.Series)
	if s.Kind != model.StructureSimple || s.Empty() {
		t.Fatalf("close: kind=%v len=%d", s.Kind, s.Len())
	}
	if last := s.Points[s.Len()-1].Value; last != 499 {
		t.Errorf("last close: got %v, want 499", last)
	}
}

func TestGetIndexedSeries(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.GetIndexedSeries(context.Background(), Gold, model.Days{N: 30}, 100)
	if err != nil {
		t.Fatal(err)
	}
	s := p.Data.(model.Series)
	if s.Empty() || math.Abs(s.Points[0].Value-100) > 1e-9 {
		t.Errorf("indexed series should start at the baseline, got %+v", s.Points[:1])
	}
	if !p.Metadata.Indexed || p.Metadata.Baseline != 100 {
		t.Errorf("metadata not marked indexed: %+v", p.Metadata)
	}
}

func TestSettings_IndicatorsValidate(t *testing.T) {
	for _, c := range DefaultSettings().Indicators() {
		if err := c.Validate(); err != nil {
			t.Errorf("%s: %v", c.Name(), err)
		}
	}
}

func TestCatalog_Dependents(t *testing.T) {
	c := newFixture(t).svc.Catalog()
	got := c.Dependents(BTC)
	if len(got) != 14 || got[0] != BTC {
		t.Errorf("btc dependents: %v", got)
	}
	if got := c.Dependents(DVOLBTC); len(got) != 2 || got[1] != IVRankBTC {
		t.Errorf("dvol dependents: %v", got)
	}
	if got := c.Dependents(Gold); len(got) != 4 || got[3] != SMA60Gold {
		t.Errorf("gold dependents: %v", got)
	}
	for _, id := range All {
		if _, err := c.Upstream(id); err != nil {
			t.Errorf("%s: %v", id, err)
		}
	}
}

func TestSource_BackfillIgnoresCoverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.svc.Catalog().Source(Gold)
	src.Series(ctx, model.Days{N: 30})
	src.Backfill(ctx, model.MaxDays)
	if last := f.gold.calls[len(f.gold.calls)-1]; !last.Max {
		t.Errorf("backfill should request the full window, got %v", last)
	}
	if f.store.saves != 2 {
		t.Errorf("saves: got %d, want 2", f.store.saves)
	}
}

func TestSource_MaxReachesPastRefreshWindow(t *testing.T) {
	f := newFixture(t)
	f.btc.rows = dailyBars(2000)
	f.btc.windowed = true
	ctx := context.Background()
	src := f.svc.Catalog().Source(BTC)

	if got := src.Refresh(ctx).Len(); got != 366 {
		t.Fatalf("refresh: got %d points, want 366", got)
	}
	if got := src.Series(ctx, model.MaxDays).Len(); got != 2000 {
		t.Errorf("max after refresh: got %d points, want 2000", got)
	}
	if last := f.btc.calls[len(f.btc.calls)-1]; !last.Max {
		t.Errorf("max should request full history once, got %v", last)
	}

	// full history is now recorded: the next max only fetches the overlap
	if got := src.Series(ctx, model.MaxDays).Len(); got != 2000 {
		t.Errorf("second max: got %d points, want 2000", got)
	}
	if last := f.btc.calls[len(f.btc.calls)-1]; last.Max || last.N > 10 {
		t.Errorf("second max should fetch the overlap only, got %v", last)
	}
}

func TestSource_MaxWithoutCoverageStoreAlwaysFetchesFull(t *testing.T) {
	f := newFixture(t)
	f.btc.rows = dailyBars(800)
	f.btc.windowed = true
	c := NewCatalog(Deps{
		Store:    plainStore{f.store},
		Fetchers: Fetchers{BTC: f.btc, ETH: f.eth, Gold: f.gold, DVOLBTC: f.dvol},
		Settings: DefaultSettings(),
		Now:      func() time.Time { return testNow },
	})
	ctx := context.Background()
	c.Source(BTC).Series(ctx, model.MaxDays)
	c.Source(BTC).Series(ctx, model.MaxDays)
	for i, call := range f.btc.calls {
		if !call.Max {
			t.Errorf("call %d: got %v, want max", i, call)
		}
	}
}

// plainStore hides the coverage methods of memStore.
type plainStore struct{ m *memStore }

func (p plainStore) LoadHistoricalData(ctx context.Context, name string) (model.Series, error) {
	return p.m.LoadHistoricalData(ctx, name)
}

func (p plainStore) SaveHistoricalData(ctx context.Context, name string, s model.Series) error {
	return p.m.SaveHistoricalData(ctx, name, s)
}

func (p plainStore) Close() error { return nil }

func TestDerived_ParabolicSAR(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.GetSeries(context.Background(), PSARBTC, model.Days{N: 30})
	if err != nil {
		t.Fatal(err)
	}
	sar, ok := p.Data.(model.TrendSeries)
	if !ok {
		t.Fatalf("psar: got %T, want TrendSeries", p.Data)
	}
	if n := sar.Len(); n < 30 || n > 31 {
		t.Errorf("psar length: got %d, want 30 or 31", n)
	}
	// fixture closes rise every day
	for _, pt := range sar.Points {
		if pt.Trend != model.Bullish {
			t.Fatalf("uptrend produced trend %d at %d", pt.Trend, pt.TS)
		}
	}
	if p.Metadata.RenderType != "dots" || !p.Metadata.Overlay {
		t.Errorf("metadata: %+v", p.Metadata)
	}
}

func TestDerived_SMAOnEveryAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.GetSeries(ctx, SMA7BTC, model.Days{N: 10})
	if err != nil {
		t.Fatal(err)
	}
	s := p.Data.(model.Series)
	// closes are 100+i, so the 7-day mean lags the last close by 3
	if last := s.Points[s.Len()-1].Value; math.Abs(last-496) > 1e-9 {
		t.Errorf("sma_7_btc last: got %v, want 496", last)
	}

	p, _ = f.svc.GetSeries(ctx, SMA60Gold, model.Days{N: 10})
	if p.Data.Len() == 0 {
		t.Errorf("sma_60_gold: expected points from a simple source")
	}
	if p.Metadata.StrokeWidth != 2.5 || p.Metadata.Color != "#4ECDC4" {
		t.Errorf("sma_60_gold metadata: %+v", p.Metadata)
	}
}

func TestComponent_VolumeOfBTC(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.GetSeries(context.Background(), VolumeBTC, model.Days{N: 10})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range p.Data.(model.Series).Values() {
		if v != 10 {
			t.Fatalf("volume: got %v, want 10", v)
		}
	}
}
