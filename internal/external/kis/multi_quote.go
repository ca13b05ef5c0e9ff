package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxMultiQuoteTickers is the vendor's hard cap on tickers per call to the
// 관심종목(interest-group) multi-price endpoint.
const maxMultiQuoteTickers = 30

// MultiQuote is one ticker's result from GetMultiQuote, including the
// call-auction fields needed to remap current_price during 동시호가
// windows (08:40-09:00, 15:20-15:30).
type MultiQuote struct {
	Ticker          string
	CurrentPrice    int64
	ChangeRate      float64
	ChangeAmount    int64
	Volume          int64
	OpenPrice       int64
	HighPrice       int64
	LowPrice        int64
	TradingValue    int64
	MarketStatus    string // open, pre_market, after_hours, closed
	PrevClosePrice  int64
	ExpectedDiff    int64
	ExpectedChgRate float64
	ExpectedVolume  int64
	UpdatedAt       time.Time
}

// GetMultiQuote fetches up to 30 tickers' current price in a single call
// against the 관심종목 multiprice endpoint. Callers are responsible for
// chunking the universe into batches of maxMultiQuoteTickers.
func (c *Client) GetMultiQuote(ctx context.Context, tickers []string) (map[string]MultiQuote, error) {
	if len(tickers) == 0 {
		return map[string]MultiQuote{}, nil
	}
	if len(tickers) > maxMultiQuoteTickers {
		return nil, fmt.Errorf("kis: GetMultiQuote accepts at most %d tickers, got %d", maxMultiQuoteTickers, len(tickers))
	}

	path := "/uapi/domestic-stock/v1/quotations/intstock-multprice"
	trID := "FHKST11300006"

	params := ""
	for i, ticker := range tickers {
		idx := i + 1
		params += fmt.Sprintf("&FID_COND_MRKT_DIV_CODE_%d=J&FID_INPUT_ISCD_%d=%s", idx, idx, ticker)
	}
	params = "?" + params[1:]

	var lastErr error
	backoff := 2 * time.Second
	for attempt := 1; attempt <= 3; attempt++ {
		result, err := c.fetchMultiQuote(ctx, path+params, trID)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("KIS multi-quote attempt failed")

		if attempt == 3 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, fmt.Errorf("kis multi-quote failed after 3 attempts: %w", lastErr)
}

func (c *Client) fetchMultiQuote(ctx context.Context, pathWithParams, trID string) (map[string]MultiQuote, error) {
	resp, err := c.request(ctx, http.MethodGet, pathWithParams, trID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded (429)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error status %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		RtCd   string `json:"rt_cd"`
		MsgCd  string `json:"msg_cd"`
		Msg1   string `json:"msg1"`
		Output []struct {
			Ticker            string `json:"inter_shrn_iscd"`
			CurrentPrice      string `json:"inter2_prpr"`
			ChangeRate        string `json:"prdy_ctrt"`
			ChangeAmount      string `json:"inter2_prdy_vrss"`
			Volume            string `json:"acml_vol"`
			OpenPrice         string `json:"inter2_oprc"`
			HighPrice         string `json:"inter2_hgpr"`
			LowPrice          string `json:"inter2_lwpr"`
			TradingValue      string `json:"acml_tr_pbmn"`
			PrevClosePrice    string `json:"inter2_prdy_clpr"`
			ExpectedDiff      string `json:"intr_antc_cntg_vrss"`
			ExpectedChangeRt  string `json:"intr_antc_cntg_prdy_ctrt"`
			ExpectedVolume    string `json:"intr_antc_vol"`
			HourClsCode       string `json:"hour_cls_code"`
		} `json:"output"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if raw.RtCd != "0" {
		if raw.MsgCd == "EGW00201" {
			return nil, fmt.Errorf("rate limit exceeded: %s - %s", raw.MsgCd, raw.Msg1)
		}
		return nil, fmt.Errorf("API error: %s - %s", raw.MsgCd, raw.Msg1)
	}

	result := make(map[string]MultiQuote, len(raw.Output))
	now := time.Now()
	for _, item := range raw.Output {
		if item.Ticker == "" {
			continue
		}

		marketStatus := "closed"
		switch item.HourClsCode {
		case "0":
			marketStatus = "open"
		case "1":
			marketStatus = "pre_market"
		case "2":
			marketStatus = "after_hours"
		}

		result[item.Ticker] = MultiQuote{
			Ticker:          item.Ticker,
			CurrentPrice:    parseInt64(item.CurrentPrice),
			ChangeRate:      parseFloat64(item.ChangeRate),
			ChangeAmount:    parseInt64(item.ChangeAmount),
			Volume:          parseInt64(item.Volume),
			OpenPrice:       parseInt64(item.OpenPrice),
			HighPrice:       parseInt64(item.HighPrice),
			LowPrice:        parseInt64(item.LowPrice),
			TradingValue:    parseInt64(item.TradingValue),
			MarketStatus:    marketStatus,
			PrevClosePrice:  parseInt64(item.PrevClosePrice),
			ExpectedDiff:    parseInt64(item.ExpectedDiff),
			ExpectedChgRate: parseFloat64(item.ExpectedChangeRt),
			ExpectedVolume:  parseInt64(item.ExpectedVolume),
			UpdatedAt:       now,
		}
	}

	return result, nil
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
