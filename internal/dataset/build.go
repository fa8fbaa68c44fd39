package dataset

import (
	"time"

	"trendsv1/internal/extract"
	"trendsv1/internal/indicator"
	"trendsv1/internal/merge"
	"trendsv1/internal/metrics"
	"trendsv1/internal/model"
)

// Settings holds the indicator parameters and history planning knobs.
type Settings struct {
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	ADXPeriod       int
	ATRPeriod       int
	BollingerPeriod int
	BollingerK      float64
	IVRWindow       int
	SARStart        float64
	SARStep         float64
	SARMax          float64
	OverlapDays     int
	DefaultDays     int
}

// DefaultSettings returns the conventional indicator parameters.
func DefaultSettings() Settings {
	return Settings{
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		ADXPeriod:       14,
		ATRPeriod:       14,
		BollingerPeriod: 20,
		BollingerK:      2,
		IVRWindow:       indicator.DefaultIVRWindow,
		SARStart:        indicator.DefaultSARStart,
		SARStep:         indicator.DefaultSARStep,
		SARMax:          indicator.DefaultSARMax,
		OverlapDays:     merge.DefaultOverlapDays,
		DefaultDays:     365,
	}
}

// Indicators returns the indicator configs the catalog will build, for
// validation at startup. The SMA configs come last, one per SMAPeriods entry.
func (s Settings) Indicators() []indicator.Config {
	cfgs := []indicator.Config{
		{Type: indicator.TypeRSI, Period: s.RSIPeriod},
		{Type: indicator.TypeMACD, Fast: s.MACDFast, Slow: s.MACDSlow, Signal: s.MACDSignal},
		{Type: indicator.TypeADX, Period: s.ADXPeriod},
		{Type: indicator.TypeATR, Period: s.ATRPeriod},
		{Type: indicator.TypeVWAP},
		{Type: indicator.TypeOBV},
		{Type: indicator.TypeBollinger, Period: s.BollingerPeriod, K: s.BollingerK},
		{Type: indicator.TypeGK},
		{Type: indicator.TypeIVR, Period: s.IVRWindow},
		{Type: indicator.TypeSAR, AFStart: s.SARStart, AFStep: s.SARStep, AFMax: s.SARMax},
	}
	for _, p := range SMAPeriods {
		cfgs = append(cfgs, indicator.Config{Type: indicator.TypeSMA, Period: p})
	}
	return cfgs
}

// Fetchers are the upstream collaborators for the provider-backed datasets.
type Fetchers struct {
	BTC     model.Fetcher // OHLCV
	ETH     model.Fetcher // OHLCV
	Gold    model.Fetcher // simple
	DVOLBTC model.Fetcher // simple
}

// Deps are the collaborators needed to build a Catalog.
type Deps struct {
	Store    model.HistoryStore
	Fetchers Fetchers
	Settings Settings
	Metrics  *metrics.Metrics  // optional
	Now      func() time.Time // optional, defaults to time.Now
}

// NewCatalog builds every dataset.
func NewCatalog(d Deps) *Catalog {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	set := d.Settings

	source := func(id ID, f model.Fetcher, meta model.Metadata) *Source {
		return &Source{
			id:          id,
			fetcher:     f,
			history:     d.Store,
			meta:        meta,
			overlapDays: set.OverlapDays,
			defaultDays: set.DefaultDays,
			prom:        d.Metrics,
			now:         now,
		}
	}
	derived := func(id ID, src seriesSource, cfg indicator.Config, meta model.Metadata) *Derived {
		return &Derived{id: id, source: src, cfg: cfg, meta: meta, prom: d.Metrics, now: now}
	}

	c := &Catalog{
		btc:     source(BTC, d.Fetchers.BTC, btcMeta()),
		eth:     source(ETH, d.Fetchers.ETH, ethMeta()),
		gold:    source(Gold, d.Fetchers.Gold, goldMeta()),
		dvolBTC: source(DVOLBTC, d.Fetchers.DVOLBTC, dvolMeta()),
	}
	cfgs := set.Indicators()
	c.rsiBTC = derived(RSIBTC, c.btc, cfgs[0], rsiMeta(set.RSIPeriod))
	c.macdBTC = derived(MACDBTC, c.btc, cfgs[1], macdMeta(set))
	c.adxBTC = derived(ADXBTC, c.btc, cfgs[2], adxMeta(set.ADXPeriod))
	c.atrBTC = derived(ATRBTC, c.btc, cfgs[3], atrMeta(set.ATRPeriod))
	c.vwapBTC = derived(VWAPBTC, c.btc, cfgs[4], vwapMeta())
	c.obvBTC = derived(OBVBTC, c.btc, cfgs[5], obvMeta())
	c.bollingerETH = derived(BollingerETH, c.eth, cfgs[6], bollingerMeta(set))
	c.realizedVolBTC = derived(RealizedVolBTC, c.btc, cfgs[7], realizedVolMeta())
	c.ivRankBTC = derived(IVRankBTC, c.dvolBTC, cfgs[8], ivRankMeta(set.IVRWindow))
	c.psarBTC = derived(PSARBTC, c.btc, cfgs[9], sarMeta("Bitcoin"))
	c.psarETH = derived(PSARETH, c.eth, cfgs[9], sarMeta("Ethereum"))
	btcSMA := [...]ID{SMA7BTC, SMA21BTC, SMA60BTC}
	ethSMA := [...]ID{SMA7ETH, SMA21ETH, SMA60ETH}
	goldSMA := [...]ID{SMA7Gold, SMA21Gold, SMA60Gold}
	for i, p := range SMAPeriods {
		cfg := cfgs[10+i]
		c.smaBTC[i] = derived(btcSMA[i], c.btc, cfg, smaMeta("Bitcoin", p))
		c.smaETH[i] = derived(ethSMA[i], c.eth, cfg, smaMeta("Ethereum", p))
		c.smaGold[i] = derived(goldSMA[i], c.gold, cfg, smaMeta("Gold", p))
	}
	c.closeBTC = &Component{id: CloseBTC, source: c.btc, field: extract.Close, meta: closeMeta()}
	c.volumeBTC = &Component{id: VolumeBTC, source: c.btc, field: extract.Volume, meta: volumeMeta()}
	return c
}
