package collector

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/gocolly/colly/v2"
)

const (
	ogDefaultLimit       = 10
	ogDefaultConcurrency = 4
	ogRequestTimeout     = 5 * time.Second
)

// ImageEnricher 为缺图的文章抓取页面上的 og:image
type ImageEnricher struct {
	// Limit 单次最多抓取的文章数
	Limit       int
	Concurrency int
	Timeout     time.Duration
}

// Enrich 返回新切片，抓取失败的文章保持原样
func (e *ImageEnricher) Enrich(ctx context.Context, list []article.Article) []article.Article {
	out := make([]article.Article, len(list))
	copy(out, list)

	limit := e.Limit
	if limit <= 0 {
		limit = ogDefaultLimit
	}
	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = ogDefaultConcurrency
	}

	var (
		wg     sync.WaitGroup
		sem    = make(chan struct{}, concurrency)
		picked int
	)

	for i := range out {
		if picked >= limit {
			break
		}
		if out[i].ImageURL != nil || !strings.HasPrefix(out[i].URL, "http") {
			continue
		}
		picked++

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, pageURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			if img := e.scrape(pageURL); img != "" {
				out[idx].ImageURL = &img
			}
		}(i, out[i].URL)
	}
	wg.Wait()

	return out
}

func (e *ImageEnricher) scrape(pageURL string) string {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = ogRequestTimeout
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Cache-Control", "no-cache")
	})

	var ogImage, twitterImage string
	c.OnHTML(`meta[property="og:image"]`, func(el *colly.HTMLElement) {
		if content := strings.TrimSpace(el.Attr("content")); ogImage == "" && content != "" {
			ogImage = el.Request.AbsoluteURL(content)
		}
	})
	c.OnHTML(`meta[name="twitter:image"]`, func(el *colly.HTMLElement) {
		if content := strings.TrimSpace(el.Attr("content")); twitterImage == "" && content != "" {
			twitterImage = el.Request.AbsoluteURL(content)
		}
	})

	if err := c.Visit(pageURL); err != nil {
		log.Printf("og image: visit %s error: %v", pageURL, err)
		return ""
	}

	if ogImage != "" {
		return ogImage
	}
	return twitterImage
}
