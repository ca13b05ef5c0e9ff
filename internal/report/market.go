package report

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// realtimeStaleness is the morning report's "fresh realtime snapshot"
// bound — spec §4.8 step 3's ≤24h, wider than the 10-minute
// realtimeFreshness bound gateway.CurrentMarketData applies.
const realtimeStaleness = 24 * 60 * 60

const atrPeriod = 14

func marketSummaryFrom(idx store.MarketIndex) MarketSummary {
	return MarketSummary{
		KospiClose:           idx.KospiClose,
		KospiChange:          idx.KospiChange,
		KospiPointChange:     idx.KospiChangePts,
		KosdaqClose:          idx.KosdaqClose,
		KosdaqChange:         idx.KosdaqChange,
		KosdaqPointChange:    idx.KosdaqChangePts,
		TradingValue:         idx.KospiTradingValue + idx.KosdaqTradingValue,
		ForeignNetKospi:      idx.KospiForeignNet,
		InstitutionNetKospi:  idx.KospiInstitutionNet,
		IndividualNetKospi:   idx.KospiIndividualNet,
		ForeignNetKosdaq:     idx.KosdaqForeignNet,
		InstitutionNetKosdaq: idx.KosdaqInstitutionNet,
		IndividualNetKosdaq:  idx.KosdaqIndividualNet,
		AdvanceCount:         idx.Advancers,
		DeclineCount:         idx.Decliners,
		UnchangedCount:       idx.Unchanged,
	}
}

// macroFor reads date's macro row from the Store; if no market_indices
// row exists for date (no job in this repository writes that table) it
// falls back to a live Gateway.Index call rather than failing the report.
func macroFor(ctx context.Context, gw *gateway.Gateway, st *store.Store, date time.Time) (store.MarketIndex, error) {
	cached, err := st.GetMarketIndex(ctx, date)
	if err != nil {
		return store.MarketIndex{}, err
	}
	if cached != nil {
		return *cached, nil
	}

	live, err := gw.Index(ctx, date)
	if err != nil {
		return store.MarketIndex{}, err
	}
	return store.MarketIndex(*live), nil
}

// enrichedStock is one Top-10 ticker with its realtime snapshot and ATR
// merged in, ready for the morning prompt's per-stock block.
type enrichedStock struct {
	Ticker           string
	Name             string
	Score            float64
	CurrentPrice     int64
	HasRealtime      bool
	OpenPrice        int64
	ChangeRate       float64
	D2Close          int64
	RegularChange    float64
	AfterHoursChange float64
	ATR              float64
	ATRPercent       float64
	HasATR           bool
}

// enrichTopStocks attaches a fresh (≤24h) realtime snapshot and ATR(14)
// to each ranked stock, deriving the implied D-2 close by inverting
// change_rate — spec §4.8 morning step 3.
func enrichTopStocks(ctx context.Context, gw *gateway.Gateway, date time.Time, ranked []rankedInput) ([]enrichedStock, error) {
	tickers := make([]string, len(ranked))
	for i, r := range ranked {
		tickers[i] = r.Ticker
	}

	realtime, err := gw.RealtimeBulk(ctx, tickers, realtimeStaleness)
	if err != nil {
		return nil, err
	}

	out := make([]enrichedStock, len(ranked))
	for i, r := range ranked {
		s := enrichedStock{
			Ticker:       r.Ticker,
			Name:         r.Name,
			Score:        r.Score,
			CurrentPrice: r.CurrentPrice,
		}

		if rt, ok := realtime[r.Ticker]; ok && rt.Current > 0 {
			s.HasRealtime = true
			s.CurrentPrice = rt.Current
			s.ChangeRate = rt.ChangeRate
			if rt.ChangeRate != -100 {
				s.D2Close = int64(float64(rt.Current) / (1 + rt.ChangeRate/100))
			}
		}

		if atr, err := gw.ATR(ctx, r.Ticker, date, atrPeriod); err == nil && atr != nil {
			s.HasATR = true
			s.ATR = *atr
			if s.CurrentPrice > 0 {
				s.ATRPercent = *atr / float64(s.CurrentPrice) * 100
			}
		}

		out[i] = s
	}
	return out, nil
}

// rankedInput is the Ranker's RankedStock narrowed to the fields the
// Report Engine needs, decoupling this package from ranker's internal
// shape beyond its exported result type.
type rankedInput struct {
	Ticker       string
	Name         string
	Score        float64
	CurrentPrice int64
}
