package embed

import (
	"context"
	"testing"
)

func TestEmbedLocalNormalized(t *testing.T) {
	vecs := embedLocal([]string{"삼성전자 실적 개선", "random unrelated text"}, localDim)
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	for i, v := range vecs {
		var sumSq float64
		for _, x := range v {
			sumSq += float64(x) * float64(x)
		}
		if sumSq > 1.01 {
			t.Errorf("vector %d not normalized: sumSq=%f", i, sumSq)
		}
	}
}

func TestCosineIdenticalText(t *testing.T) {
	vecs := embedLocal([]string{"삼성전자 실적 개선 발표", "삼성전자 실적 개선 발표"}, localDim)
	sim := Cosine(vecs[0], vecs[1])
	if sim < 0.99 {
		t.Errorf("expected near-1.0 cosine for identical text, got %f", sim)
	}
}

func TestCosineEmptyMismatch(t *testing.T) {
	if Cosine(nil, []float32{1, 2}) != 0 {
		t.Error("expected 0 cosine for mismatched lengths")
	}
}

type fakeEmbedder struct {
	vectors [][]float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f.vectors, nil
}

func TestDedupDropsNearDuplicates(t *testing.T) {
	embedder := &fakeEmbedder{vectors: [][]float32{
		{1, 0},
		{0.99, 0.01}, // near-duplicate of item 0
		{0, 1},       // distinct
	}}

	kept, err := Dedup(context.Background(), embedder, []string{"a", "b", "c"}, 0.66)
	if err != nil {
		t.Fatalf("Dedup failed: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept items, got %d: %v", len(kept), kept)
	}
	if kept[0] != 0 || kept[1] != 2 {
		t.Errorf("expected kept=[0,2], got %v", kept)
	}
}

func TestDedupEmpty(t *testing.T) {
	kept, err := Dedup(context.Background(), &fakeEmbedder{}, nil, 0.66)
	if err != nil {
		t.Fatalf("Dedup failed: %v", err)
	}
	if kept != nil {
		t.Errorf("expected nil for empty input, got %v", kept)
	}
}
