package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDataset is returned for identifiers outside the catalog.
var ErrUnknownDataset = errors.New("unknown dataset")

// ID identifies one dataset. The set is closed: every ID below maps to
// exactly one Dataset in Catalog.Get.
type ID string

const (
	BTC     ID = "btc"
	ETH     ID = "eth"
	Gold    ID = "gold"
	DVOLBTC ID = "dvol_btc"

	RSIBTC         ID = "rsi_btc"
	MACDBTC        ID = "macd_btc"
	ADXBTC         ID = "adx_btc"
	ATRBTC         ID = "atr_btc"
	VWAPBTC        ID = "vwap_btc"
	OBVBTC         ID = "obv_btc"
	BollingerETH   ID = "bollinger_eth"
	RealizedVolBTC ID = "realized_vol_btc"
	IVRankBTC      ID = "iv_rank_btc"
	CloseBTC       ID = "close_btc"
	VolumeBTC      ID = "volume_btc"
	PSARBTC        ID = "psar_btc"
	PSARETH        ID = "psar_eth"

	SMA7BTC   ID = "sma_7_btc"
	SMA21BTC  ID = "sma_21_btc"
	SMA60BTC  ID = "sma_60_btc"
	SMA7ETH   ID = "sma_7_eth"
	SMA21ETH  ID = "sma_21_eth"
	SMA60ETH  ID = "sma_60_eth"
	SMA7Gold  ID = "sma_7_gold"
	SMA21Gold ID = "sma_21_gold"
	SMA60Gold ID = "sma_60_gold"
)

// SMAPeriods are the moving-average lengths offered for each asset, in the
// order of the sma_<period>_<asset> IDs.
var SMAPeriods = [3]int{7, 21, 60}

// All lists every dataset in display order.
var All = []ID{
	BTC, ETH, Gold, DVOLBTC,
	RSIBTC, MACDBTC, ADXBTC, ATRBTC, VWAPBTC, OBVBTC,
	BollingerETH, RealizedVolBTC, IVRankBTC, CloseBTC,
	VolumeBTC, PSARBTC, PSARETH,
	SMA7BTC, SMA21BTC, SMA60BTC,
	SMA7ETH, SMA21ETH, SMA60ETH,
	SMA7Gold, SMA21Gold, SMA60Gold,
}

// Sources lists the provider-backed datasets that own stored history.
var Sources = []ID{BTC, ETH, Gold, DVOLBTC}

// ParseID validates a request parameter.
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDataset, s)
}

func (id ID) String() string { return string(id) }

// Catalog holds one Dataset per ID.
type Catalog struct {
	btc, eth, gold, dvolBTC *Source

	rsiBTC, macdBTC, adxBTC, atrBTC, vwapBTC, obvBTC *Derived
	bollingerETH, realizedVolBTC, ivRankBTC          *Derived
	psarBTC, psarETH                                 *Derived
	smaBTC, smaETH, smaGold                          [len(SMAPeriods)]*Derived
	closeBTC, volumeBTC                              *Component
}

// smaSlot maps an SMA id onto its index in SMAPeriods.
func smaSlot(id ID) int {
	switch id {
	case SMA7BTC, SMA7ETH, SMA7Gold:
		return 0
	case SMA21BTC, SMA21ETH, SMA21Gold:
		return 1
	default:
		return 2
	}
}

// Get returns the Dataset for id.
func (c *Catalog) Get(id ID) (Dataset, error) {
	switch id {
	case BTC:
		return c.btc, nil
	case ETH:
		return c.eth, nil
	case Gold:
		return c.gold, nil
	case DVOLBTC:
		return c.dvolBTC, nil
	case RSIBTC:
		return c.rsiBTC, nil
	case MACDBTC:
		return c.macdBTC, nil
	case ADXBTC:
		return c.adxBTC, nil
	case ATRBTC:
		return c.atrBTC, nil
	case VWAPBTC:
		return c.vwapBTC, nil
	case OBVBTC:
		return c.obvBTC, nil
	case BollingerETH:
		return c.bollingerETH, nil
	case RealizedVolBTC:
		return c.realizedVolBTC, nil
	case IVRankBTC:
		return c.ivRankBTC, nil
	case CloseBTC:
		return c.closeBTC, nil
	case VolumeBTC:
		return c.volumeBTC, nil
	case PSARBTC:
		return c.psarBTC, nil
	case PSARETH:
		return c.psarETH, nil
	case SMA7BTC, SMA21BTC, SMA60BTC:
		return c.smaBTC[smaSlot(id)], nil
	case SMA7ETH, SMA21ETH, SMA60ETH:
		return c.smaETH[smaSlot(id)], nil
	case SMA7Gold, SMA21Gold, SMA60Gold:
		return c.smaGold[smaSlot(id)], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, string(id))
	}
}

// Source returns the provider-backed dataset for id, or nil when id is
// derived.
func (c *Catalog) Source(id ID) *Source {
	switch id {
	case BTC:
		return c.btc
	case ETH:
		return c.eth
	case Gold:
		return c.gold
	case DVOLBTC:
		return c.dvolBTC
	default:
		return nil
	}
}

// Upstream returns the provider-backed dataset id feeds from. For a source
// it is id itself.
func (c *Catalog) Upstream(id ID) (ID, error) {
	switch id {
	case BTC, ETH, Gold, DVOLBTC:
		return id, nil
	case RSIBTC, MACDBTC, ADXBTC, ATRBTC, VWAPBTC, OBVBTC, RealizedVolBTC, CloseBTC,
		VolumeBTC, PSARBTC, SMA7BTC, SMA21BTC, SMA60BTC:
		return BTC, nil
	case BollingerETH, PSARETH, SMA7ETH, SMA21ETH, SMA60ETH:
		return ETH, nil
	case SMA7Gold, SMA21Gold, SMA60Gold:
		return Gold, nil
	case IVRankBTC:
		return DVOLBTC, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDataset, string(id))
	}
}

// Dependents returns every dataset fed by source, source included, in
// display order.
func (c *Catalog) Dependents(source ID) []ID {
	var out []ID
	for _, id := range All {
		if up, err := c.Upstream(id); err == nil && up == source {
			out = append(out, id)
		}
	}
	return out
}
