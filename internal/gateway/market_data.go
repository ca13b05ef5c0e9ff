package gateway

import (
	"context"
	"time"
)

// realtimeFreshness bounds how old a realtime_prices row may be before
// CurrentMarketData treats the realtime feed as unavailable for that
// ticker and falls back to the day's vendor snapshot.
const realtimeFreshness = 10 * time.Minute

// MarketRow is one ticker's current-day cross-section: OHLCV plus the
// static market cap joined in from FilteredStock, the shape the Trigger
// Engine (C6) scans over.
type MarketRow struct {
	Ticker       string
	Name         string
	Open         int64
	High         int64
	Low          int64
	Close        int64
	Volume       int64
	TradingValue int64
	ChangeRate   float64
	MarketCap    float64
}

// CurrentMarketData returns the filtered universe's current-day rows,
// preferring the realtime hot cache (fresh within realtimeFreshness) and
// falling back to the vendor day snapshot when the realtime feed is
// empty or fully stale — mirroring the reference service's
// realtime-prices-first-then-pykrx-snapshot fallback.
func (g *Gateway) CurrentMarketData(ctx context.Context, date time.Time) (map[string]MarketRow, error) {
	stocks, err := g.store.ListPassingStocks(ctx)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return map[string]MarketRow{}, nil
	}

	tickers := make([]string, len(stocks))
	marketCap := make(map[string]float64, len(stocks))
	name := make(map[string]string, len(stocks))
	for i, st := range stocks {
		tickers[i] = st.Ticker
		marketCap[st.Ticker] = st.MarketCap
		name[st.Ticker] = st.Name
	}

	realtime, err := g.store.GetRealtimePrices(ctx, tickers, realtimeFreshness)
	if err != nil {
		return nil, err
	}

	if len(realtime) > 0 {
		rows := make(map[string]MarketRow, len(realtime))
		for ticker, p := range realtime {
			rows[ticker] = MarketRow{
				Ticker:       ticker,
				Name:         name[ticker],
				Open:         p.Open,
				High:         p.High,
				Low:          p.Low,
				Close:        p.Current,
				Volume:       p.Volume,
				TradingValue: p.TradingValue,
				ChangeRate:   p.ChangeRate,
				MarketCap:    marketCap[ticker],
			}
		}
		return rows, nil
	}

	g.log.Warn("currentMarketData: realtime_prices empty, falling back to vendor snapshot")
	snap, err := g.Snapshot(ctx, date)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]MarketRow, len(snap.Table))
	for ticker, bar := range snap.Table {
		rows[ticker] = MarketRow{
			Ticker:       ticker,
			Name:         name[ticker],
			Open:         bar.Open,
			High:         bar.High,
			Low:          bar.Low,
			Close:        bar.Close,
			Volume:       bar.Volume,
			TradingValue: bar.Close * bar.Volume,
			MarketCap:    marketCap[ticker],
		}
	}
	return rows, nil
}
