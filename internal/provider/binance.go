package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"trendsv1/internal/model"
	"trendsv1/internal/normalize"
)

const (
	DefaultBinanceBaseURL = "https://api.binance.com"
	klinesPageLimit       = 1000
	maxKlinePages         = 10
)

// binanceGenesis is the earliest day requested for "max" (2017-08-17,
// first day of BTCUSDT spot trading).
var binanceGenesis = time.Date(2017, 8, 17, 0, 0, 0, 0, time.UTC)

// Binance fetches daily OHLCV klines for one spot symbol.
type Binance struct {
	httpClient
	baseURL string
	symbol  string
	now     func() time.Time
}

// NewBinance creates a klines fetcher for symbol, e.g. "BTCUSDT".
func NewBinance(baseURL, symbol string, limiter *RateLimiter) *Binance {
	if baseURL == "" {
		baseURL = DefaultBinanceBaseURL
	}
	return &Binance{
		httpClient: newHTTPClient(limiter),
		baseURL:    baseURL,
		symbol:     symbol,
		now:        time.Now,
	}
}

func (b *Binance) Name() string { return "binance:" + b.symbol }

// GetData pages through /api/v3/klines from the start of the window to now.
func (b *Binance) GetData(ctx context.Context, days model.Days) (model.FetchResult, error) {
	now := b.now().UTC()
	start := binanceGenesis
	if !days.Max {
		start = now.AddDate(0, 0, -days.N)
	}

	var rows model.RawSeries
	cursor := start.UnixMilli()
	for page := 0; page < maxKlinePages; page++ {
		body, err := b.get(ctx, b.baseURL+"/api/v3/klines", map[string]string{
			"symbol":    b.symbol,
			"interval":  "1d",
			"startTime": strconv.FormatInt(cursor, 10),
			"limit":     strconv.Itoa(klinesPageLimit),
		})
		if err != nil {
			return model.FetchResult{}, fetchErr(b.Name(), err)
		}
		if msg := gjson.GetBytes(body, "msg"); msg.Exists() {
			return model.FetchResult{}, fetchErr(b.Name(), fmt.Errorf("code %d: %s", gjson.GetBytes(body, "code").Int(), msg.Str))
		}

		batch := normalize.Columns(normalize.DecodeRows(body, ""), 0, 1, 2, 3, 4, 5)
		rows = append(rows, batch...)
		if len(batch) < klinesPageLimit {
			break
		}
		cursor = int64(batch[len(batch)-1][0]) + model.DayMs
		if cursor > now.UnixMilli() {
			break
		}
	}

	if len(rows) == 0 {
		return model.FetchResult{}, fetchErr(b.Name(), fmt.Errorf("empty kline payload"))
	}
	return model.FetchResult{
		Data: rows,
		Metadata: map[string]string{
			"source":   "binance",
			"symbol":   b.symbol,
			"interval": "1d",
		},
	}, nil
}
