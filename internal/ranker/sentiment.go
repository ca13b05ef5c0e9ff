package ranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kr-equities/aegis-quant/internal/embed"
	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/internal/llm"
)

const (
	newsLookbackDays  = 5
	newsDedupCosine   = 0.66
	newsTitlesPerStep = 20
	sentimentRankMax  = 50
)

// newsByTicker crawls and dedups recent news for each of the 50 base-
// score finalists in parallel — llm_report.py's
// _crawl_and_deduplicate_news, one gateway.News + embed.Dedup pass per
// ticker.
func newsByTicker(ctx context.Context, gw *gateway.Gateway, embedder embed.Embedder, tickers []string) (map[string][]gateway.NewsItem, error) {
	results := make(map[string][]gateway.NewsItem, len(tickers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			items, err := gw.News(ctx, ticker, newsLookbackDays)
			if err != nil {
				mu.Lock()
				results[ticker] = nil
				mu.Unlock()
				return nil
			}

			titles := make([]string, len(items))
			for i, item := range items {
				titles[i] = item.Title
			}
			kept, err := embed.Dedup(ctx, embedder, titles, newsDedupCosine)
			if err != nil {
				mu.Lock()
				results[ticker] = items
				mu.Unlock()
				return nil
			}

			deduped := make([]gateway.NewsItem, len(kept))
			for i, idx := range kept {
				deduped[i] = items[idx]
			}
			mu.Lock()
			results[ticker] = deduped
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sentimentRanking asks the LLM once to rank every ticker's news by
// sentiment 1 (most positive) .. N (most negative) — llm_report.py's
// _analyze_sentiment_batch_all. Missing or unparseable response falls
// back to the neutral middle rank for every ticker, matching the
// reference's failure path.
func sentimentRanking(ctx context.Context, client *llm.Client, news map[string][]gateway.NewsItem) (map[string]int, error) {
	prompt := buildSentimentPrompt(news)

	response, err := client.Generate(ctx, prompt)
	if err != nil {
		return neutralRanks(news), nil
	}

	var parsed struct {
		Rankings []struct {
			Ticker string `json:"ticker"`
			Rank   int    `json:"rank"`
		} `json:"rankings"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(response)), &parsed); err != nil {
		return neutralRanks(news), nil
	}

	ranks := make(map[string]int, len(parsed.Rankings))
	for _, r := range parsed.Rankings {
		if r.Ticker != "" && r.Rank > 0 {
			ranks[r.Ticker] = r.Rank
		}
	}
	return ranks, nil
}

func neutralRanks(news map[string][]gateway.NewsItem) map[string]int {
	ranks := make(map[string]int, len(news))
	for ticker := range news {
		ranks[ticker] = sentimentRankMax / 2
	}
	return ranks
}

func buildSentimentPrompt(news map[string][]gateway.NewsItem) string {
	var b strings.Builder
	b.WriteString("Rank the following tickers from most positive (1) to most negative news sentiment, based on their recent headlines. Tickers with no news get a middling rank.\n\n")

	for ticker, items := range news {
		if len(items) == 0 {
			fmt.Fprintf(&b, "[%s]\n(no news)\n\n", ticker)
			continue
		}
		fmt.Fprintf(&b, "[%s]\n", ticker)
		limit := len(items)
		if limit > newsTitlesPerStep {
			limit = newsTitlesPerStep
		}
		for i, item := range items[:limit] {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Respond with JSON only:
{"rankings": [{"ticker": "005930", "rank": 1}, ...]}`)
	return b.String()
}

// sentimentScores converts sentiment ranks (1..N) into a linear 0-10
// score — _convert_ranks_to_scores's rank 1 → 10.0, rank N → 0.0.
// Tickers absent from ranks (LLM omitted them) get the neutral score.
func sentimentScores(ranks map[string]int, tickers []string) map[string]float64 {
	n := len(tickers)
	scores := make(map[string]float64, n)
	for _, ticker := range tickers {
		rank, ok := ranks[ticker]
		if !ok || n <= 1 {
			scores[ticker] = neutralScore
			continue
		}
		score := 10.0 - float64(rank-1)*(10.0/float64(n-1))
		scores[ticker] = clampFloat(score, 0, 10)
	}
	return scores
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
