package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kr-equities/aegis-quant/internal/embed"
	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/internal/llm"
)

const (
	newsDedupCosine     = 0.66
	newsSentimentSample = 100
	newsSentimentWeight = 0.0005
	newsAdjMin          = -0.05
	newsAdjMax          = 0.05
)

// newsSentiment is Step 3: dedup the news list, ask the LLM to classify
// each headline into positive/negative/neutral, then derive a ±5%
// price-target nudge from the counts (code-computed, not LLM-owned) —
// llm_company_analysis.py's _analyze_news_sentiment.
type newsSentiment struct {
	Adjustment        float64  `json:"adjustment"`
	PositiveCount     int      `json:"positive_count"`
	NegativeCount     int      `json:"negative_count"`
	NeutralCount      int      `json:"neutral_count"`
	KeyPositiveNews   []string `json:"key_positive_news"`
	KeyNegativeNews   []string `json:"key_negative_news"`
	Reasoning         string   `json:"reasoning"`
	OriginalCount     int      `json:"original_count"`
	DeduplicatedCount int      `json:"deduplicated_count"`
}

// analyzeNewsSentiment dedups news at cosine 0.66, clips to the first
// 100 survivors, and asks the LLM to bucket them. On any failure to
// reach or parse the LLM it falls back to a neutral (zero-adjustment)
// result, matching the reference's except-path behavior.
func analyzeNewsSentiment(ctx context.Context, client *llm.Client, embedder embed.Embedder, news []gateway.NewsItem) (newsSentiment, []gateway.NewsItem, error) {
	if len(news) == 0 {
		return newsSentiment{Reasoning: "no news available"}, nil, nil
	}
	originalCount := len(news)

	titles := make([]string, len(news))
	for i, item := range news {
		titles[i] = item.Title
	}
	kept, err := embed.Dedup(ctx, embedder, titles, newsDedupCosine)
	if err != nil {
		return newsSentiment{Reasoning: fmt.Sprintf("dedup failed: %v", err), OriginalCount: originalCount}, news, nil
	}

	deduped := make([]gateway.NewsItem, len(kept))
	for i, idx := range kept {
		deduped[i] = news[idx]
	}
	if len(deduped) > newsSentimentSample {
		deduped = deduped[:newsSentimentSample]
	}

	prompt := buildNewsSentimentPrompt(deduped)
	response, err := client.Generate(ctx, prompt)
	if err != nil {
		return newsSentiment{
			Reasoning:         fmt.Sprintf("sentiment classification failed: %v", err),
			OriginalCount:     originalCount,
			DeduplicatedCount: len(deduped),
		}, deduped, nil
	}

	var parsed struct {
		PositiveCount   int      `json:"positive_count"`
		NegativeCount   int      `json:"negative_count"`
		NeutralCount    int      `json:"neutral_count"`
		KeyPositiveNews []string `json:"key_positive_news"`
		KeyNegativeNews []string `json:"key_negative_news"`
		Reasoning       string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(response)), &parsed); err != nil {
		return newsSentiment{
			Reasoning:         fmt.Sprintf("sentiment parse failed: %v", err),
			OriginalCount:     originalCount,
			DeduplicatedCount: len(deduped),
		}, deduped, nil
	}

	adjustment := clampFloat(
		float64(parsed.PositiveCount)*newsSentimentWeight-float64(parsed.NegativeCount)*newsSentimentWeight,
		newsAdjMin, newsAdjMax,
	)

	return newsSentiment{
		Adjustment:        adjustment,
		PositiveCount:     parsed.PositiveCount,
		NegativeCount:      parsed.NegativeCount,
		NeutralCount:      parsed.NeutralCount,
		KeyPositiveNews:   parsed.KeyPositiveNews,
		KeyNegativeNews:   parsed.KeyNegativeNews,
		Reasoning:         parsed.Reasoning,
		OriginalCount:     originalCount,
		DeduplicatedCount: len(deduped),
	}, deduped, nil
}

func buildNewsSentimentPrompt(news []gateway.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "다음 %d개 뉴스 제목을 긍정/부정/중립으로 분류하세요.\n\n", len(news))
	b.WriteString("긍정: M&A, 신사업, 실적 개선, 수주, 투자 확대, 매출 증가 등\n")
	b.WriteString("부정: 적자, 감원, 소송, 규제, 수요 감소, 리콜, 하락, 부진 등\n")
	b.WriteString("중립: 단순 사실 전달, 인사 발령 등\n\n")

	for i, item := range news {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
	}

	b.WriteString(`
JSON으로만 응답하세요:
{"positive_count": 0, "negative_count": 0, "neutral_count": 0, "key_positive_news": [], "key_negative_news": [], "reasoning": ""}`)
	return b.String()
}
