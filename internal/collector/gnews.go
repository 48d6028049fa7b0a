package collector

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
)

const (
	gnewsBaseURL    = "https://gnews.io"
	gnewsDefaultMax = 10
)

// GNews 没有 crime 分类，Crime/Trending 走 search 接口
var gnewsCategories = map[article.Category]string{
	article.CategoryGeneral:       "general",
	article.CategoryPolitics:      "nation",
	article.CategorySports:        "sports",
	article.CategoryTechnology:    "technology",
	article.CategoryBusiness:      "business",
	article.CategoryEntertainment: "entertainment",
}

// 免费档正文末尾的截断标记，例如 "... [1234 chars]"
var gnewsTruncated = regexp.MustCompile(`\s*(\.\.\.|…)?\s*\[\d+\s+chars\]\s*$`)

// GNewsFetcher 通过 GNews v4 接口搜索新闻
type GNewsFetcher struct {
	APIKey  string
	BaseURL string
	Max     int
	Client  *http.Client
}

func (g *GNewsFetcher) Name() string {
	return "gnews"
}

type gnewsResponse struct {
	TotalArticles int         `json:"totalArticles"`
	Articles      []gnewsItem `json:"articles"`
}

type gnewsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

func (g *GNewsFetcher) Fetch(ctx context.Context, q Query) ([]article.Article, error) {
	if g.APIKey == "" {
		log.Printf("gnews: skip fetch, api key not configured")
		return nil, nil
	}

	limit := g.Max
	if limit <= 0 {
		limit = gnewsDefaultMax
	}

	params := url.Values{}
	params.Set("apikey", g.APIKey)
	params.Set("q", q.Text)
	params.Set("lang", "en")
	params.Set("country", "in")
	params.Set("max", strconv.Itoa(limit))

	endpoint := "/api/v4/search"
	if code, ok := gnewsCategories[q.Category]; ok {
		endpoint = "/api/v4/top-headlines"
		params.Set("category", code)
	}

	base := g.BaseURL
	if base == "" {
		base = gnewsBaseURL
	}

	var resp gnewsResponse
	if err := getJSON(ctx, clientOrDefault(g.Client), strings.TrimRight(base, "/")+endpoint+"?"+params.Encode(), &resp); err != nil {
		log.Printf("gnews: fetch %q error: %v", q.Text, err)
		return nil, nil
	}

	results := make([]article.Article, 0, len(resp.Articles))
	for _, it := range resp.Articles {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}

		link := strings.TrimSpace(it.URL)
		id := link
		if link == "" {
			link = article.NoURL
		}

		content := visibleText(gnewsTruncated.ReplaceAllString(it.Content, ""))
		if content == nil {
			content = visibleText(it.Description)
		}

		a := article.Article{
			ID:        id,
			Headline:  title,
			Content:   content,
			URL:       link,
			ImageURL:  article.StringPtr(it.Image),
			Timestamp: parseTime(time.RFC3339, it.PublishedAt),
			Source:    it.Source.Name,
			District:  q.District,
			Category:  q.Category,
			AIHint:    defaultHint(q),
		}
		if a.ID == "" {
			a.ID = fallbackID(g.Name(), a)
		}
		results = append(results, a)
	}

	if len(results) == 0 {
		log.Printf("gnews: no items for %q", q.Text)
	}
	return results, nil
}
