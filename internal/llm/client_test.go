package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestExtractText(t *testing.T) {
	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "hello "},
						{Text: "world"},
					},
				},
			},
		},
	}

	text, err := extractText(result)
	if err != nil {
		t.Fatalf("extractText failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("expected 'hello world', got %q", text)
	}
}

func TestExtractTextNoCandidates(t *testing.T) {
	result := &genai.GenerateContentResponse{}
	if _, err := extractText(result); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestExtractTextEmptyContent(t *testing.T) {
	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: nil}},
		},
	}
	if _, err := extractText(result); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestExtractJSONFencedBlock(t *testing.T) {
	text := "Here you go:\n```json\n{\"a\": 1}\n```\nThanks"
	got := ExtractJSON(text)
	if got != `{"a": 1}` {
		t.Errorf("expected fenced JSON extracted, got %q", got)
	}
}

func TestExtractJSONNoFence(t *testing.T) {
	text := `{"a": 1}`
	if got := ExtractJSON(text); got != text {
		t.Errorf("expected passthrough for unfenced JSON, got %q", got)
	}
}

func TestWithURLPreamble(t *testing.T) {
	got := withURLPreamble("analyze this", []string{"https://a.example", "https://b.example"})

	want := "Reference URLs:\n- https://a.example\n- https://b.example\n\nanalyze this"
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}
