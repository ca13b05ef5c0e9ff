// Package embed provides sentence embeddings for the news-dedup step of
// the Top-N Ranker (C7), with an OpenAI-backed embedder and a
// dependency-free local fallback. Grounded on stadam23-Eve-flipper's
// internal/api/station_ai_wiki_rag.go embedding pipeline (OpenAI REST
// call with batching and L2 normalization, falling back to an
// FNV-hashed bag-of-tokens vector when no API key is configured).
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"
)

// localDim is the vector width used by the local hash embedder. Chosen
// to match the reference's local fallback dimension.
const localDim = 384

// batchSize caps how many texts go into one OpenAI embeddings request.
const batchSize = 64

// Embedder turns text into a normalized vector suitable for cosine
// similarity comparison.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Client is the default Embedder: OpenAI's embeddings endpoint when an
// API key is configured, otherwise a local hash-based embedder. Both
// paths L2-normalize their output so Cosine reduces to a dot product.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// New constructs a Client. apiKey empty means every Embed call uses the
// local fallback.
func New(apiKey, model, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 25 * time.Second},
	}
}

// Embed returns one normalized vector per text, preserving order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.apiKey != "" {
		vecs, err := c.embedOpenAI(ctx, texts)
		if err == nil {
			return vecs, nil
		}
	}
	return embedLocal(texts, localDim), nil
}

func (c *Client) embedOpenAI(ctx context.Context, texts []string) ([][]float32, error) {
	type request struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	type response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/embeddings"
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		body, err := json.Marshal(request{Model: c.model, Input: texts[start:end]})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("embed: openai http %d", resp.StatusCode)
		}

		var parsed response
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, err
		}
		if parsed.Error != nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("embed: openai: %s", parsed.Error.Message)
		}

		sort.SliceStable(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
		for _, item := range parsed.Data {
			vec := make([]float32, len(item.Embedding))
			for i, v := range item.Embedding {
				vec[i] = float32(v)
			}
			normalize(vec)
			out = append(out, vec)
		}
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("embed: openai count mismatch")
	}
	return out, nil
}

// embedLocal builds a deterministic bag-of-tokens vector per text via
// FNV-1a token hashing, with no external dependency. It is not a
// semantic embedding — it is a conservative fallback that still lets
// near-duplicate headlines (same tokens, different order) collapse
// under a cosine threshold.
func embedLocal(texts []string, dim int) [][]float32 {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec := make([]float32, dim)
		for _, tok := range tokenize(text) {
			h := fnv1a(tok)
			idx := int(h % uint64(dim))
			sign := float32(1.0)
			if (h>>63)&1 == 1 {
				sign = -1.0
			}
			vec[idx] += sign
		}
		normalize(vec)
		out = append(out, vec)
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func fnv1a(token string) uint64 {
	const (
		offset uint64 = 1469598103934665603
		prime  uint64 = 1099511628211
	)
	h := offset
	for i := 0; i < len(token); i++ {
		h ^= uint64(token[i])
		h *= prime
	}
	return h
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq <= 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sumSq)
	for i, v := range vec {
		vec[i] = float32(float64(v) * inv)
	}
}

// Cosine returns the cosine similarity of two equal-length normalized
// vectors (a plain dot product, since both inputs are already unit
// length).
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
