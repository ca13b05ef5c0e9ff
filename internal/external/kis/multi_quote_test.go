package kis

import "testing"

func TestParseInt64(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"plain", "12345", 12345},
		{"empty", "", 0},
		{"invalid", "abc", 0},
		{"negative", "-500", -500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseInt64(tt.input); got != tt.want {
				t.Errorf("parseInt64(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFloat64(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain", "1.25", 1.25},
		{"empty", "", 0},
		{"invalid", "n/a", 0},
		{"negative", "-3.5", -3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFloat64(tt.input); got != tt.want {
				t.Errorf("parseFloat64(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetMultiQuoteRejectsOversizedBatch(t *testing.T) {
	tickers := make([]string, maxMultiQuoteTickers+1)
	for i := range tickers {
		tickers[i] = "000000"
	}

	c := &Client{}
	if _, err := c.GetMultiQuote(nil, tickers); err == nil {
		t.Error("GetMultiQuote with 31 tickers should error, got nil")
	}
}

func TestGetMultiQuoteEmptyInput(t *testing.T) {
	c := &Client{}
	got, err := c.GetMultiQuote(nil, nil)
	if err != nil {
		t.Fatalf("GetMultiQuote(nil) returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("GetMultiQuote(nil) = %v, want empty map", got)
	}
}
