package provider

import (
	"context"
	"fmt"

	"trendsv1/internal/model"
	"trendsv1/internal/normalize"
)

const DefaultCoinGeckoBaseURL = "https://api.coingecko.com"

// CoinGecko fetches daily [ts, price] pairs from the market_chart endpoint.
type CoinGecko struct {
	httpClient
	baseURL    string
	coinID     string
	vsCurrency string
}

// NewCoinGecko creates a fetcher for coinID priced in vsCurrency.
func NewCoinGecko(baseURL, coinID, vsCurrency string, limiter *RateLimiter) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	return &CoinGecko{
		httpClient: newHTTPClient(limiter),
		baseURL:    baseURL,
		coinID:     coinID,
		vsCurrency: vsCurrency,
	}
}

func (c *CoinGecko) Name() string { return "coingecko:" + c.coinID }

// GetData requests the last days of daily prices ("max" passes through).
func (c *CoinGecko) GetData(ctx context.Context, days model.Days) (model.FetchResult, error) {
	body, err := c.get(ctx, c.baseURL+"/api/v3/coins/"+c.coinID+"/market_chart", map[string]string{
		"vs_currency": c.vsCurrency,
		"days":        days.String(),
		"interval":    "daily",
	})
	if err != nil {
		return model.FetchResult{}, fetchErr(c.Name(), err)
	}

	rows := normalize.DecodeRows(body, "prices")
	if len(rows) == 0 {
		return model.FetchResult{}, fetchErr(c.Name(), fmt.Errorf("no prices in payload"))
	}
	return model.FetchResult{
		Data: rows,
		Metadata: map[string]string{
			"source":      "coingecko",
			"coin":        c.coinID,
			"vs_currency": c.vsCurrency,
		},
	}, nil
}
