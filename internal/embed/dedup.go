package embed

import "context"

// Dedup drops items whose embedded text is cosine-similar to an
// earlier-kept item at or above threshold, preserving input order —
// llm_report.py's deduplicate_news(threshold=0.66) applied per ticker
// before the sentiment-ranking LLM call.
func Dedup(ctx context.Context, embedder Embedder, items []string, threshold float64) ([]int, error) {
	if len(items) == 0 {
		return nil, nil
	}

	vectors, err := embedder.Embed(ctx, items)
	if err != nil {
		return nil, err
	}

	var kept []int
	var keptVectors [][]float32
	for i, vec := range vectors {
		duplicate := false
		for _, kv := range keptVectors {
			if Cosine(vec, kv) >= threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, i)
			keptVectors = append(keptVectors, vec)
		}
	}
	return kept, nil
}
