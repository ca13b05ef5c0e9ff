package gateway

import (
	"github.com/kr-equities/aegis-quant/internal/indicator"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

func toIndicatorBars(bars []store.PriceBar) []indicator.Bar {
	out := make([]indicator.Bar, len(bars))
	for i, b := range bars {
		out[i] = indicator.Bar{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return out
}
