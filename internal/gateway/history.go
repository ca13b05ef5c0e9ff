package gateway

import (
	"context"
	"time"
)

// History returns the ticker's OHLCV history over [start, end], keyed by
// date — backed by the finance-portal chart API (naver.FetchPrices),
// which tolerates both its JSON and regex-fallback response shapes.
func (g *Gateway) History(ctx context.Context, ticker string, start, end time.Time) (map[time.Time]OHLCV, error) {
	prices, err := g.naver.FetchPrices(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	out := make(map[time.Time]OHLCV, len(prices))
	for _, p := range prices {
		out[p.TradeDate] = OHLCV{
			Ticker: ticker,
			Date:   p.TradeDate,
			Open:   p.OpenPrice,
			High:   p.HighPrice,
			Low:    p.LowPrice,
			Close:  p.ClosePrice,
			Volume: p.Volume,
		}
	}
	return out, nil
}
