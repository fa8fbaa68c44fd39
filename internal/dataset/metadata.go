package dataset

import (
	"fmt"

	"trendsv1/internal/model"
)

func btcMeta() model.Metadata {
	return model.Metadata{
		Label:         "Bitcoin (BTC)",
		YAxisID:       "price_usd",
		YAxisLabel:    "Price (USD)",
		Unit:          "$",
		ChartType:     "line",
		Color:         "#F7931A",
		StrokeWidth:   2,
		Description:   "Bitcoin daily OHLCV",
		DataStructure: model.StructureOHLCV.String(),
		Components:    []string{"timestamp", "open", "high", "low", "close", "volume"},
	}
}

func ethMeta() model.Metadata {
	m := btcMeta()
	m.Label = "Ethereum (ETH)"
	m.Color = "#627EEA"
	m.Description = "Ethereum daily OHLCV"
	return m
}

func goldMeta() model.Metadata {
	return model.Metadata{
		Label:         "Gold (XAU/USD)",
		YAxisID:       "price_usd",
		YAxisLabel:    "Price per Oz (USD)",
		Unit:          "$",
		ChartType:     "line",
		Color:         "#FFD700",
		StrokeWidth:   2,
		Description:   "Gold spot price per troy ounce in USD",
		DataStructure: model.StructureSimple.String(),
		Components:    []string{"timestamp", "price"},
	}
}

func dvolMeta() model.Metadata {
	return model.Metadata{
		Label:         "DVOL (Bitcoin)",
		Oscillator:    true,
		YAxisID:       "oscillator",
		YAxisLabel:    "DVOL (%)",
		Unit:          "%",
		ChartType:     "line",
		Color:         "#00D9FF",
		StrokeWidth:   2,
		Description:   "Deribit Volatility Index for Bitcoin, 30-day implied volatility",
		DataStructure: model.StructureSimple.String(),
		Components:    []string{"timestamp", "dvol_value"},
	}
}

func rsiMeta(period int) model.Metadata {
	return model.Metadata{
		Label:         fmt.Sprintf("RSI (%d)", period),
		Oscillator:    true,
		YAxisID:       "indicator",
		YAxisLabel:    "RSI Value",
		ChartType:     "line",
		Color:         "#FF9500",
		StrokeWidth:   2,
		Description:   fmt.Sprintf("%d-period Relative Strength Index for BTC", period),
		DataStructure: model.StructureSimple.String(),
		YDomain:       []float64{0, 100},
		ReferenceLines: []model.ReferenceLine{
			{Value: 30, Label: "Oversold", Color: "#4CAF50", StrokeDasharray: "5,5"},
			{Value: 70, Label: "Overbought", Color: "#F44336", StrokeDasharray: "5,5"},
		},
	}
}

func macdMeta(s Settings) model.Metadata {
	return model.Metadata{
		Label:       "MACD",
		Oscillator:  true,
		YAxisID:     "indicator",
		YAxisLabel:  "MACD",
		ChartType:   "line",
		Color:       "#FF5722",
		StrokeWidth: 2,
		Description: fmt.Sprintf("MACD (%d,%d,%d) trend following momentum indicator for BTC",
			s.MACDFast, s.MACDSlow, s.MACDSignal),
		Components: []string{"macd", "signal", "histogram"},
		AdditionalLines: []model.ExtraLine{
			{Name: "signal", Color: "#FFC107", StrokeWidth: 1.5},
			{Name: "histogram", Color: "#9E9E9E", StrokeWidth: 1, ChartType: "bar"},
		},
		ReferenceLines: []model.ReferenceLine{{Value: 0, Label: "Zero", Color: "#888"}},
	}
}

func adxMeta(period int) model.Metadata {
	return model.Metadata{
		Label:          fmt.Sprintf("ADX (%d)", period),
		Oscillator:     true,
		YAxisID:        "oscillator",
		YAxisLabel:     "ADX (Trend Strength)",
		ChartType:      "line",
		Color:          "#673AB7",
		StrokeWidth:    2,
		Description:    "Average Directional Index for Bitcoin, trend strength from 0 to 100",
		DataStructure:  model.StructureSimple.String(),
		YDomain:        []float64{0, 100},
		ReferenceLines: []model.ReferenceLine{{Value: 25, Label: "Trend Threshold", Color: "#888"}},
	}
}

func atrMeta(period int) model.Metadata {
	return model.Metadata{
		Label:         fmt.Sprintf("ATR (%d)", period),
		Oscillator:    true,
		YAxisID:       "oscillator",
		YAxisLabel:    "ATR (Volatility)",
		Unit:          "$",
		ChartType:     "line",
		Color:         "#FF5722",
		StrokeWidth:   2,
		Description:   "Average True Range for Bitcoin",
		DataStructure: model.StructureSimple.String(),
	}
}

func vwapMeta() model.Metadata {
	return model.Metadata{
		Label:         "VWAP",
		YAxisID:       "price_usd",
		YAxisLabel:    "Price (USD)",
		Unit:          "$",
		ChartType:     "line",
		Color:         "#00BCD4",
		StrokeWidth:   2,
		Description:   "Volume weighted average price, cumulative over the requested window",
		DataStructure: model.StructureSimple.String(),
	}
}

func obvMeta() model.Metadata {
	return model.Metadata{
		Label:         "OBV (On-Balance Volume)",
		Oscillator:    true,
		YAxisID:       "indicator",
		YAxisLabel:    "OBV",
		ChartType:     "line",
		Color:         "#2196F3",
		StrokeWidth:   2,
		Description:   "On-Balance Volume for BTC, buying and selling pressure",
		DataStructure: model.StructureSimple.String(),
	}
}

func bollingerMeta(s Settings) model.Metadata {
	return model.Metadata{
		Label:       "Bollinger Bands",
		YAxisID:     "price_usd",
		YAxisLabel:  "Price (USD)",
		Unit:        "$",
		ChartType:   "band",
		Color:       "#9C27B0",
		StrokeWidth: 2,
		Description: fmt.Sprintf("%d-day Bollinger Bands (k=%g) for ETH", s.BollingerPeriod, s.BollingerK),
		Components:  []string{"upper", "middle", "lower"},
	}
}

func realizedVolMeta() model.Metadata {
	return model.Metadata{
		Label:         "Realized Volatility (Bitcoin)",
		Oscillator:    true,
		YAxisID:       "oscillator",
		YAxisLabel:    "Realized Vol (%)",
		Unit:          "%",
		ChartType:     "line",
		Color:         "#9C27B0",
		StrokeWidth:   2,
		Description:   "Garman-Klass realized volatility for Bitcoin, annualized %",
		DataStructure: model.StructureSimple.String(),
	}
}

func ivRankMeta(window int) model.Metadata {
	return model.Metadata{
		Label:         "IV Rank (Bitcoin)",
		Oscillator:    true,
		YAxisID:       "oscillator",
		YAxisLabel:    "IV Rank (%)",
		Unit:          "%",
		ChartType:     "line",
		Color:         "#4ECDC4",
		StrokeWidth:   2,
		Description:   fmt.Sprintf("IV Rank for Bitcoin DVOL, %d-day lookback", window),
		DataStructure: model.StructureSimple.String(),
		YDomain:       []float64{0, 100},
		ReferenceLines: []model.ReferenceLine{
			{Value: 75, Label: "High IVR", Color: "#ef5350"},
			{Value: 50, Label: "Mid", Color: "#888"},
			{Value: 25, Label: "Low IVR", Color: "#26a69a"},
		},
	}
}

func closeMeta() model.Metadata {
	return model.Metadata{
		Label:         "Bitcoin Close",
		YAxisID:       "price_usd",
		YAxisLabel:    "Price (USD)",
		Unit:          "$",
		ChartType:     "line",
		Color:         "#F7931A",
		StrokeWidth:   1.5,
		Description:   "Bitcoin daily close",
		DataStructure: model.StructureSimple.String(),
	}
}

func volumeMeta() model.Metadata {
	return model.Metadata{
		Label:         "Volume (Bitcoin)",
		Oscillator:    true,
		YAxisID:       "oscillator",
		YAxisLabel:    "Volume",
		ChartType:     "line",
		Color:         "#9C27B0",
		StrokeWidth:   2,
		Description:   "Trading volume for Bitcoin",
		DataStructure: model.StructureSimple.String(),
		Components:    []string{"timestamp", "volume"},
	}
}

func sarMeta(asset string) model.Metadata {
	return model.Metadata{
		Label:         fmt.Sprintf("Parabolic SAR (%s)", asset),
		Overlay:       true,
		YAxisID:       "price_usd",
		YAxisLabel:    "Price (USD)",
		Unit:          "$",
		ChartType:     "overlay",
		RenderType:    "dots",
		DotRadius:     3,
		DotColors:     map[string]string{"bullish": "#00D9FF", "bearish": "#FF1493"},
		Color:         "#00D9FF",
		Description:   fmt.Sprintf("Parabolic SAR for %s, trend following stop-and-reverse", asset),
		DataStructure: "extended",
		Components:    []string{"timestamp", "sar_value", "trend"},
	}
}

var smaColors = map[int]string{7: "#FF6B6B", 21: "#FFA500", 60: "#4ECDC4"}

func smaMeta(asset string, period int) model.Metadata {
	color, ok := smaColors[period]
	if !ok {
		color = "#888888"
	}
	width := 2.0
	if period > 30 {
		width = 2.5
	}
	return model.Metadata{
		Label:         fmt.Sprintf("SMA-%d (%s)", period, asset),
		Overlay:       true,
		YAxisID:       "price_usd",
		YAxisLabel:    "Price (USD)",
		Unit:          "$",
		ChartType:     "line",
		Color:         color,
		StrokeWidth:   width,
		Description:   fmt.Sprintf("%d-period Simple Moving Average for %s", period, asset),
		DataStructure: model.StructureSimple.String(),
		Components:    []string{"timestamp", "sma_value"},
	}
}
