package indicator

import (
	"fmt"

	"trendsv1/internal/model"
)

// Type names an indicator the engine can compute.
type Type string

const (
	TypeSMA       Type = "SMA"
	TypeEMA       Type = "EMA"
	TypeRSI       Type = "RSI"
	TypeMACD      Type = "MACD"
	TypeADX       Type = "ADX"
	TypeATR       Type = "ATR"
	TypeVWAP      Type = "VWAP"
	TypeOBV       Type = "OBV"
	TypeBollinger Type = "BB"
	TypeGK        Type = "GK"
	TypeIVR       Type = "IVR"
	TypeSAR       Type = "PSAR"
)

// Config specifies a single indicator to compute. Only the fields relevant
// to Type are read.
type Config struct {
	Type   Type
	Period int     // SMA, EMA, RSI, ADX, ATR, BB; IVR window
	Fast   int     // MACD
	Slow   int     // MACD
	Signal int     // MACD
	K      float64 // BB width in standard deviations

	AFStart float64 // PSAR
	AFStep  float64 // PSAR
	AFMax   float64 // PSAR
}

// Name returns a display key like "RSI_14" or "MACD_12_26_9".
func (c Config) Name() string {
	switch c.Type {
	case TypeMACD:
		return fmt.Sprintf("%s_%d_%d_%d", c.Type, c.Fast, c.Slow, c.Signal)
	case TypeVWAP, TypeOBV, TypeGK, TypeSAR:
		return string(c.Type)
	default:
		return fmt.Sprintf("%s_%d", c.Type, c.Period)
	}
}

// NeedsOHLCV reports whether the indicator reads full bars.
func (c Config) NeedsOHLCV() bool {
	switch c.Type {
	case TypeADX, TypeATR, TypeVWAP, TypeOBV, TypeGK, TypeSAR:
		return true
	}
	return false
}

// Warmup is the number of leading input points consumed before the first
// output. For MACD it is the warm-up of the signal line.
func (c Config) Warmup() int {
	switch c.Type {
	case TypeSMA, TypeEMA, TypeATR, TypeBollinger:
		return c.Period - 1
	case TypeRSI, TypeIVR:
		return c.Period
	case TypeADX:
		return 2*c.Period - 2
	case TypeMACD:
		return c.Slow + c.Signal - 2
	default:
		return 0
	}
}

// Validate rejects configs that can never produce output.
func (c Config) Validate() error {
	switch c.Type {
	case TypeVWAP, TypeOBV, TypeGK:
		return nil
	case TypeMACD:
		if c.Fast <= 0 || c.Slow <= 0 || c.Signal <= 0 {
			return fmt.Errorf("%s: periods must be positive", c.Name())
		}
		if c.Fast >= c.Slow {
			return fmt.Errorf("%s: fast period must be below slow period", c.Name())
		}
		return nil
	case TypeSMA, TypeEMA, TypeRSI, TypeADX, TypeATR, TypeIVR:
		if c.Period <= 0 {
			return fmt.Errorf("%s: period must be positive", c.Name())
		}
		return nil
	case TypeBollinger:
		if c.Period <= 0 {
			return fmt.Errorf("%s: period must be positive", c.Name())
		}
		if c.K <= 0 {
			return fmt.Errorf("%s: k must be positive", c.Name())
		}
		return nil
	case TypeSAR:
		if c.AFStart <= 0 || c.AFStep <= 0 {
			return fmt.Errorf("%s: acceleration factors must be positive", c.Name())
		}
		if c.AFMax < c.AFStart {
			return fmt.Errorf("%s: af max %.2f below af start %.2f", c.Name(), c.AFMax, c.AFStart)
		}
		return nil
	default:
		return fmt.Errorf("unknown indicator type %q", c.Type)
	}
}

// ValidateConfigs validates every config and returns the first error.
func ValidateConfigs(cfgs []Config) error {
	for _, c := range cfgs {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Compute runs the configured indicator over s. Single-line indicators give
// a Series. Bollinger gives a BandSeries, MACD a MultiLineSeries and
// Parabolic SAR a TrendSeries. Unknown types yield an empty Series.
func Compute(c Config, s model.Series) model.Data {
	switch c.Type {
	case TypeSMA:
		return SMASeries(s, c.Period)
	case TypeEMA:
		return EMASeries(s, c.Period)
	case TypeRSI:
		return RSISeries(s, c.Period)
	case TypeMACD:
		return MACDSeries(s, c.Fast, c.Slow, c.Signal)
	case TypeADX:
		return ADXSeries(s, c.Period)
	case TypeATR:
		return ATRSeries(s, c.Period)
	case TypeVWAP:
		return VWAPSeries(s)
	case TypeOBV:
		return OBVSeries(s)
	case TypeBollinger:
		return BollingerSeries(s, c.Period, c.K)
	case TypeGK:
		return GarmanKlassSeries(s)
	case TypeIVR:
		return IVRankSeries(s, c.Period)
	case TypeSAR:
		return SARSeries(s, c.AFStart, c.AFStep, c.AFMax)
	default:
		return model.Series{Kind: model.StructureSimple}
	}
}
