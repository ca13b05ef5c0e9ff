package gateway

import (
	"context"
	"time"
)

// Index returns the macro summary for date, composed from the KRX
// vendor's per-market-trend call (run twice, once per index). Only the
// foreign/institution/individual net flows are filled; closes, changes,
// trading values and advance/decline/unchanged counts are left zero.
// Callers that need the persisted row should read pkg/store instead; the
// Report Engine calls this live path when the Store has no row for date.
func (g *Gateway) Index(ctx context.Context, date time.Time) (*MarketIndex, error) {
	kospiTrend, err := g.krx.FetchMarketTrend(ctx, "KOSPI")
	if err != nil {
		return nil, err
	}
	kosdaqTrend, err := g.krx.FetchMarketTrend(ctx, "KOSDAQ")
	if err != nil {
		return nil, err
	}

	idx := &MarketIndex{
		Date:                 date,
		KospiForeignNet:      int64(kospiTrend.ForeignNet),
		KospiInstitutionNet:  int64(kospiTrend.InstitutionNet),
		KospiIndividualNet:   int64(kospiTrend.IndividualNet),
		KosdaqForeignNet:     int64(kosdaqTrend.ForeignNet),
		KosdaqInstitutionNet: int64(kosdaqTrend.InstitutionNet),
		KosdaqIndividualNet:  int64(kosdaqTrend.IndividualNet),
	}

	// KRX's market-cap endpoint carries cap and shares-outstanding, not
	// aggregate trading value, so TradingValue and the
	// Advance/Decline/Unchanged counts are not set here.
	return idx, nil
}
