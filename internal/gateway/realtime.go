package gateway

import (
	"context"
	"time"
)

// RealtimeOne returns the live quote straight from the vendor, bypassing
// the Store's hot cache — used by the poller itself, not by readers.
func (g *Gateway) RealtimeOne(ctx context.Context, ticker string) (*RealtimeQuote, error) {
	price, err := g.kis.GetCurrentPrice(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &RealtimeQuote{
		Ticker:    ticker,
		Current:   int64(price.ClosePrice),
		Volume:    price.Volume,
		UpdatedAt: price.FetchedAt,
		Source:    "kis",
	}, nil
}

// RealtimeBulk reads the Store's hot cache for tickers, returning only
// rows younger than stalenessSec; stale rows are silently omitted so the
// caller can fall back to a fresh vendor call.
func (g *Gateway) RealtimeBulk(ctx context.Context, tickers []string, stalenessSec int) (map[string]RealtimeQuote, error) {
	rows, err := g.store.GetRealtimePrices(ctx, tickers, time.Duration(stalenessSec)*time.Second)
	if err != nil {
		return nil, err
	}

	out := make(map[string]RealtimeQuote, len(rows))
	for ticker, p := range rows {
		out[ticker] = RealtimeQuote{
			Ticker:       p.Ticker,
			Current:      p.Current,
			ChangeRate:   p.ChangeRate,
			ChangeAmount: p.ChangeAmount,
			Volume:       p.Volume,
			UpdatedAt:    p.UpdatedAt,
			Source:       p.DataSource,
		}
	}
	return out, nil
}
