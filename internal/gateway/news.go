package gateway

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const newsPortalUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// News fetches headlines for ticker from two sources — the finance
// portal's stock-news HTML table and a news RSS feed — concatenated with
// no dedup (dedup is the Top-N Ranker's job), ordered newest-first and
// filtered to the [now-days, now] window.
func (g *Gateway) News(ctx context.Context, ticker string, days int) ([]NewsItem, error) {
	var items []NewsItem

	portalItems, err := g.fetchPortalNews(ctx, ticker)
	if err != nil {
		g.log.WithField("ticker", ticker).WithError(err).Warn("news: portal fetch failed")
	} else {
		items = append(items, portalItems...)
	}

	rssItems, err := g.fetchRSSNews(ctx, ticker)
	if err != nil {
		g.log.WithField("ticker", ticker).WithError(err).Warn("news: rss fetch failed")
	} else {
		items = append(items, rssItems...)
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	var filtered []NewsItem
	for _, it := range items {
		if it.Published.After(cutoff) {
			filtered = append(filtered, it)
		}
	}
	for i := 0; i < len(filtered); i++ {
		for j := i + 1; j < len(filtered); j++ {
			if filtered[j].Published.After(filtered[i].Published) {
				filtered[i], filtered[j] = filtered[j], filtered[i]
			}
		}
	}
	return filtered, nil
}

// fetchPortalNews primes cookies against the stock page before scraping the
// news list page — the portal blocks requests that skip this warm-up.
func (g *Gateway) fetchPortalNews(ctx context.Context, ticker string) ([]NewsItem, error) {
	stockPageURL := fmt.Sprintf("https://finance.naver.com/item/main.naver?code=%s", ticker)
	warmReq, err := http.NewRequestWithContext(ctx, http.MethodGet, stockPageURL, nil)
	if err != nil {
		return nil, err
	}
	warmReq.Header.Set("User-Agent", newsPortalUserAgent)

	httpClient := &http.Client{Timeout: 10 * time.Second}
	warmResp, err := httpClient.Do(warmReq)
	if err != nil {
		return nil, fmt.Errorf("cookie priming request failed: %w", err)
	}
	defer warmResp.Body.Close()
	io.Copy(io.Discard, warmResp.Body)

	var cookies []*http.Cookie
	cookies = append(cookies, warmResp.Cookies()...)

	newsURL := fmt.Sprintf("https://finance.naver.com/item/news_news.naver?code=%s", ticker)
	newsReq, err := http.NewRequestWithContext(ctx, http.MethodGet, newsURL, nil)
	if err != nil {
		return nil, err
	}
	newsReq.Header.Set("User-Agent", newsPortalUserAgent)
	newsReq.Header.Set("Referer", stockPageURL)
	for _, c := range cookies {
		newsReq.AddCookie(c)
	}

	newsResp, err := httpClient.Do(newsReq)
	if err != nil {
		return nil, fmt.Errorf("news list request failed: %w", err)
	}
	defer newsResp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(newsResp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse news html: %w", err)
	}

	var items []NewsItem
	doc.Find("table.type5 tr").Each(func(_ int, row *goquery.Selection) {
		titleLink := row.Find("td.title a")
		title := strings.TrimSpace(titleLink.Text())
		if title == "" {
			return
		}
		href, _ := titleLink.Attr("href")
		dateText := strings.TrimSpace(row.Find("td.date").Text())
		published, _ := time.Parse("2006-01-02 15:04", dateText)

		items = append(items, NewsItem{
			Ticker:    ticker,
			Title:     title,
			URL:       href,
			Source:    "naver_finance_portal",
			Published: published,
		})
	})
	return items, nil
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// fetchRSSNews parses the vendor news RSS feed for ticker.
func (g *Gateway) fetchRSSNews(ctx context.Context, ticker string) ([]NewsItem, error) {
	rssURL := fmt.Sprintf("https://finance.naver.com/item/news_rss.naver?code=%s", ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rssURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", newsPortalUserAgent)

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	items := make([]NewsItem, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		published, _ := time.Parse(time.RFC1123Z, it.PubDate)
		items = append(items, NewsItem{
			Ticker:    ticker,
			Title:     it.Title,
			URL:       it.Link,
			Source:    "rss",
			Published: published,
		})
	}
	return items, nil
}
