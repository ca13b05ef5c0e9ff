package gateway

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/indicator"
)

const technicalsMinHistory = 14

// Technicals computes RSI(14), MACD(12/26/9) with golden/dead-cross
// status, and SMA(5,20,60) with a ±2% ma_position band, reading history
// from the Store rather than re-fetching the vendor. Fewer than 14 days
// of history returns the neutral default (rsi=50, macd_status=neutral,
// ma_position=중립).
func (g *Gateway) Technicals(ctx context.Context, ticker string, date time.Time) (*Technicals, error) {
	start := date.AddDate(0, -6, 0) // 6 months back comfortably covers SMA-60
	bars, err := g.store.GetPriceBars(ctx, ticker, start, date)
	if err != nil {
		return nil, err
	}

	if len(bars) < technicalsMinHistory {
		return &Technicals{
			Ticker:     ticker,
			Date:       date,
			RSI14:      50,
			MACDStatus: MACDNeutral,
			MAPosition: MAPositionNeutral,
		}, nil
	}

	indBars := toIndicatorBars(bars)
	rsi := indicator.RSI(indBars, 14)
	macd := indicator.MACD(indBars)
	sma5 := indicator.SMA(indBars, 5)
	sma20 := indicator.SMA(indBars, 20)
	sma60 := indicator.SMA(indBars, 60)

	latestClose := float64(bars[len(bars)-1].Close)
	maPosition := MAPositionNeutral
	if sma20 > 0 {
		diff := (latestClose - sma20) / sma20
		if diff > 0.02 {
			maPosition = MAPositionAbove
		} else if diff < -0.02 {
			maPosition = MAPositionBelow
		}
	}

	return &Technicals{
		Ticker:     ticker,
		Date:       date,
		RSI14:      rsi,
		MACDStatus: MACDStatus(macd.Status),
		SMA5:       sma5,
		SMA20:      sma20,
		SMA60:      sma60,
		MAPosition: maPosition,
	}, nil
}

// TechnicalsBatch computes Technicals for every ticker, batch requests of
// batch tickers at a time against the Store (the Store has no network
// cost, but the batching mirrors the vendor-facing methods' shape so
// callers can swap in a network-backed batch later without changing the
// call site).
func (g *Gateway) TechnicalsBatch(ctx context.Context, tickers []string, date time.Time, batch int) (map[string]Technicals, error) {
	out := make(map[string]Technicals, len(tickers))
	for i := 0; i < len(tickers); i += batch {
		end := i + batch
		if end > len(tickers) {
			end = len(tickers)
		}
		for _, ticker := range tickers[i:end] {
			t, err := g.Technicals(ctx, ticker, date)
			if err != nil {
				g.log.WithField("ticker", ticker).WithError(err).Warn("technicalsBatch: compute failed")
				continue
			}
			out[ticker] = *t
		}
	}
	return out, nil
}

// ATR computes the Average True Range for ticker over period, reading
// period+1 bars ending at date. Fewer bars returns nil.
func (g *Gateway) ATR(ctx context.Context, ticker string, date time.Time, period int) (*float64, error) {
	start := date.AddDate(0, 0, -(period+1)*3) // pad for weekends/holidays
	bars, err := g.store.GetPriceBars(ctx, ticker, start, date)
	if err != nil {
		return nil, err
	}
	return indicator.ATR(toIndicatorBars(bars), period), nil
}
