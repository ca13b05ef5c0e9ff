package gateway

import (
	"context"
	"time"

	"github.com/kr-equities/aegis-quant/internal/external/dart"
)

// Disclosures is a supplemented read path (SPEC_FULL.md §12): the gateway
// exposes the DART filing feed so the Analysis Engine can cite recent
// disclosures in a company's "risks" section, even though spec.md itself
// only names the filtered-stock fundamentals as the gateway's static data.
func (g *Gateway) Disclosures(ctx context.Context, corpCode string, days int) ([]Disclosure, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	filings, err := g.dart.FetchDisclosures(ctx, corpCode, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]Disclosure, 0, len(filings))
	for _, f := range filings {
		filed, _ := time.Parse("20060102", f.RceptDt)
		out = append(out, Disclosure{
			Ticker:     f.StockCode,
			Title:      f.ReportNm,
			ReportName: f.ReportNm,
			Category:   string(dart.GetCategory(f.CorpCls)),
			Filed:      filed,
			URL:        dart.GetDARTURL(f.RceptNo),
		})
	}
	return out, nil
}
