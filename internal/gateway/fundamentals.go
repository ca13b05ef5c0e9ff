package gateway

import "context"

// Fundamentals reads the static valuation snapshot for ticker. It is
// read-only: the underlying filtered_stocks table is populated by an
// external daily batch, never written by the Gateway itself.
func (g *Gateway) Fundamentals(ctx context.Context, ticker string) (*Fundamentals, error) {
	st, err := g.store.GetFilteredStock(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	return &Fundamentals{
		Ticker:           st.Ticker,
		Name:             st.Name,
		Market:           string(st.Market),
		BPS:              st.BPS,
		PER:              st.PER,
		PBR:              st.PBR,
		EPS:              st.EPS,
		Div:              st.Div,
		DPS:              st.DPS,
		ROE:              st.ROE,
		DebtRatio:        st.DebtRatio,
		YoYRevenueGrowth: st.YoYRevenueGrowth,
		MarketCap:        st.MarketCap,
		TradingValue:     st.TradingValue,
	}, nil
}

// SectorComparison is an Open Question (spec §9): the spec explicitly
// instructs not to guess at a sector-comparison data source, so this
// returns ErrNotImplemented rather than fabricating one.
func (g *Gateway) SectorComparison(ctx context.Context, ticker string) (*Fundamentals, error) {
	return nil, ErrNotImplemented
}
