package ranker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kr-equities/aegis-quant/internal/embed"
	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/internal/llm"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// Ranker runs the Top-N selection pipeline for one trading date.
// ⭐ SSOT: the seven-step base→sentiment→final scoring lives only here.
type Ranker struct {
	gateway  *gateway.Gateway
	store    *store.Store
	llm      *llm.Client
	embedder embed.Embedder
	log      *logger.Logger
}

// New wires a Ranker over an existing Gateway, Store, LLM client, and
// Embedder.
func New(gw *gateway.Gateway, st *store.Store, llmClient *llm.Client, embedder embed.Embedder, log *logger.Logger) *Ranker {
	return &Ranker{gateway: gw, store: st, llm: llmClient, embedder: embedder, log: log}
}

// Rank runs the full seven-step pipeline for date and returns the final
// Top-10, each with its full five-score breakdown.
func (r *Ranker) Rank(ctx context.Context, date time.Time) ([]RankedStock, error) {
	candidates, err := r.join(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("ranker: join: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	tickers := make([]string, len(candidates))
	for i, c := range candidates {
		tickers[i] = c.Ticker
	}

	momentum, err := momentumScores(ctx, r.store, candidates, date)
	if err != nil {
		return nil, fmt.Errorf("ranker: momentum: %w", err)
	}
	volume, err := volumeScores(ctx, r.store, candidates, date)
	if err != nil {
		return nil, fmt.Errorf("ranker: volume: %w", err)
	}
	technical, err := technicalScores(ctx, r.gateway, tickers, date)
	if err != nil {
		return nil, fmt.Errorf("ranker: technical: %w", err)
	}

	ranked := make([]RankedStock, len(candidates))
	for i, c := range candidates {
		m, v, t := momentum[c.Ticker], volume[c.Ticker], technical[c.Ticker]
		ranked[i] = RankedStock{
			Ticker:         c.Ticker,
			Name:           c.Name,
			MomentumScore:  m,
			VolumeScore:    v,
			TechnicalScore: t,
			BaseScore:      m*weightMomentum + v*weightVolume + t*weightTechnical,
		}
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].BaseScore > ranked[j].BaseScore })
	if len(ranked) > top50Count {
		ranked = ranked[:top50Count]
	}

	base50Tickers := make([]string, len(ranked))
	for i, rs := range ranked {
		base50Tickers[i] = rs.Ticker
	}

	news, err := newsByTicker(ctx, r.gateway, r.embedder, base50Tickers)
	if err != nil {
		return nil, fmt.Errorf("ranker: news: %w", err)
	}
	ranks, err := sentimentRanking(ctx, r.llm, news)
	if err != nil {
		return nil, fmt.Errorf("ranker: sentiment ranking: %w", err)
	}
	sentiment := sentimentScores(ranks, base50Tickers)

	now := date
	for i := range ranked {
		s := sentiment[ranked[i].Ticker]
		ranked[i].SentimentScore = s
		ranked[i].FinalScore = ranked[i].BaseScore*weightBase + s*weightSentiment
		ranked[i].RankedAt = now
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].FinalScore > ranked[j].FinalScore })
	if len(ranked) > top10Count {
		ranked = ranked[:top10Count]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	r.log.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"selected":   len(ranked),
	}).Info("ranker: rank complete")

	return ranked, nil
}

// join merges the day's market snapshot with the filtered universe's
// static fundamentals, keeping only rows with PER>0 ∧ PBR>0 ∧
// market_cap>0 ∧ close>0 — spec step 1.
func (r *Ranker) join(ctx context.Context, date time.Time) ([]candidate, error) {
	rows, err := r.gateway.CurrentMarketData(ctx, date)
	if err != nil {
		return nil, err
	}

	stocks, err := r.store.ListPassingStocks(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	for _, st := range stocks {
		row, ok := rows[st.Ticker]
		if !ok {
			continue
		}
		if st.PER <= 0 || st.PBR <= 0 || st.MarketCap <= 0 || row.Close <= 0 {
			continue
		}
		candidates = append(candidates, candidate{
			Ticker:       st.Ticker,
			Name:         st.Name,
			Close:        row.Close,
			Volume:       row.Volume,
			TradingValue: row.TradingValue,
			MarketCap:    st.MarketCap,
			PER:          st.PER,
			PBR:          st.PBR,
		})
	}
	return candidates, nil
}
