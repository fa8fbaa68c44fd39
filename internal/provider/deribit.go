package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"trendsv1/internal/model"
	"trendsv1/internal/normalize"
)

const DefaultDeribitBaseURL = "https://www.deribit.com"

// deribitGenesis is the first day DVOL history is published.
var deribitGenesis = time.Date(2021, 3, 24, 0, 0, 0, 0, time.UTC)

// Deribit fetches the daily DVOL implied-volatility index for a currency.
// Rows arrive as [ts, open, high, low, close]; the close is kept.
type Deribit struct {
	httpClient
	baseURL  string
	currency string
	now      func() time.Time
}

// NewDeribit creates a DVOL fetcher for currency, e.g. "BTC".
func NewDeribit(baseURL, currency string, limiter *RateLimiter) *Deribit {
	if baseURL == "" {
		baseURL = DefaultDeribitBaseURL
	}
	return &Deribit{
		httpClient: newHTTPClient(limiter),
		baseURL:    baseURL,
		currency:   currency,
		now:        time.Now,
	}
}

func (d *Deribit) Name() string { return "deribit:dvol_" + d.currency }

func (d *Deribit) GetData(ctx context.Context, days model.Days) (model.FetchResult, error) {
	now := d.now().UTC()
	start := deribitGenesis
	if !days.Max {
		start = now.AddDate(0, 0, -days.N)
	}

	body, err := d.get(ctx, d.baseURL+"/api/v2/public/get_volatility_index_data", map[string]string{
		"currency":        d.currency,
		"resolution":      "1D",
		"start_timestamp": strconv.FormatInt(start.UnixMilli(), 10),
		"end_timestamp":   strconv.FormatInt(now.UnixMilli(), 10),
	})
	if err != nil {
		return model.FetchResult{}, fetchErr(d.Name(), err)
	}

	rows := normalize.Columns(normalize.DecodeRows(body, "result.data"), 0, 4)
	if len(rows) == 0 {
		return model.FetchResult{}, fetchErr(d.Name(), fmt.Errorf("no DVOL rows in payload"))
	}
	return model.FetchResult{
		Data: rows,
		Metadata: map[string]string{
			"source":   "deribit",
			"currency": d.currency,
		},
	}, nil
}
