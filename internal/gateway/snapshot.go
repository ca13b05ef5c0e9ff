package gateway

import (
	"context"
	"time"
)

const maxSnapshotLookback = 10

// Snapshot returns the per-ticker OHLCV+cap cross-section for date. If the
// vendor returns an empty table, or a majority (>90%) of close prices are
// zero, it recurses to the previous business day (bounded by
// maxSnapshotLookback) rather than returning a degenerate snapshot.
func (g *Gateway) Snapshot(ctx context.Context, date time.Time) (*Snapshot, error) {
	return g.snapshot(ctx, date, 0)
}

func (g *Gateway) snapshot(ctx context.Context, date time.Time, depth int) (*Snapshot, error) {
	if depth > maxSnapshotLookback {
		return nil, ErrDataUnavailable
	}

	stocks, err := g.store.ListPassingStocks(ctx)
	if err != nil {
		return nil, err
	}

	table := make(map[string]OHLCV, len(stocks))
	zeroClose := 0
	for _, st := range stocks {
		price, err := g.kis.GetDailyPrice(ctx, st.Ticker, date)
		if err != nil {
			g.log.WithField("ticker", st.Ticker).WithError(err).Debug("snapshot: daily price fetch failed")
			continue
		}
		bar := OHLCV{
			Ticker: st.Ticker,
			Date:   date,
			Open:   int64(price.OpenPrice),
			High:   int64(price.HighPrice),
			Low:    int64(price.LowPrice),
			Close:  int64(price.ClosePrice),
			Volume: price.Volume,
		}
		table[st.Ticker] = bar
		if bar.Close == 0 {
			zeroClose++
		}
	}

	if len(table) == 0 || (len(table) > 0 && float64(zeroClose)/float64(len(table)) > 0.9) {
		prev := date.AddDate(0, 0, -1)
		return g.snapshot(ctx, prev, depth+1)
	}

	return &Snapshot{Date: date, Table: table}, nil
}

// PreviousTradingDay skips weekends and any date whose probe snapshot is
// empty or whose close-sum and volume-sum are both zero, returning the
// first valid date within maxLookback days.
func (g *Gateway) PreviousTradingDay(ctx context.Context, date time.Time, maxLookback int) (time.Time, error) {
	probe := date.AddDate(0, 0, -1)
	for i := 0; i < maxLookback; i++ {
		if probe.Weekday() == time.Saturday {
			probe = probe.AddDate(0, 0, -1)
			continue
		}
		if probe.Weekday() == time.Sunday {
			probe = probe.AddDate(0, 0, -2)
			continue
		}

		snap, err := g.snapshot(ctx, probe, maxSnapshotLookback) // depth maxed: skip inner recursion, just probe
		if err == nil && snap != nil && !closeAndVolumeBothZero(snap) {
			return probe, nil
		}
		probe = probe.AddDate(0, 0, -1)
	}
	return time.Time{}, ErrDataUnavailable
}

func closeAndVolumeBothZero(s *Snapshot) bool {
	if len(s.Table) == 0 {
		return true
	}
	var closeSum, volSum int64
	for _, bar := range s.Table {
		closeSum += bar.Close
		volSum += bar.Volume
	}
	return closeSum == 0 && volSum == 0
}
