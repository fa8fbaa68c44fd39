package normalize

import (
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"trendsv1/internal/model"
)

// DecodeRows extracts an array of arrays from a JSON document. path selects
// the array with gjson syntax ("" means the document root, "prices" a
// CoinGecko market_chart body). Numeric strings are parsed, everything else
// that is not a number becomes NaN so the normalizer can reject the row.
func DecodeRows(body []byte, path string) model.RawSeries {
	var arr gjson.Result
	if path == "" {
		arr = gjson.ParseBytes(body)
	} else {
		arr = gjson.GetBytes(body, path)
	}
	if !arr.IsArray() {
		return nil
	}

	rows := arr.Array()
	out := make(model.RawSeries, 0, len(rows))
	for _, row := range rows {
		if !row.IsArray() {
			out = append(out, model.RawRecord{math.NaN()})
			continue
		}
		cells := row.Array()
		rec := make(model.RawRecord, len(cells))
		for i, c := range cells {
			rec[i] = cellFloat(c)
		}
		out = append(out, rec)
	}
	return out
}

// Columns keeps the given column indexes of every row, in order. Binance
// klines carry 12 columns of which [0..5] are ts/open/high/low/close/volume.
func Columns(raw model.RawSeries, idx ...int) model.RawSeries {
	out := make(model.RawSeries, 0, len(raw))
	for _, r := range raw {
		rec := make(model.RawRecord, len(idx))
		for i, j := range idx {
			if j < len(r) {
				rec[i] = r[j]
			} else {
				rec[i] = math.NaN()
			}
		}
		out = append(out, rec)
	}
	return out
}

func cellFloat(c gjson.Result) float64 {
	switch c.Type {
	case gjson.Number:
		return c.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(c.Str, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
