package collector

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/LJTian/DistrictNews/internal/article"
)

const (
	newsDataBaseURL    = "https://newsdata.io"
	newsDataTimeLayout = "2006-01-02 15:04:05"
)

// newsDataCategories 未出现在表中的分类（Trending 等）不带 category 参数
var newsDataCategories = map[article.Category]string{
	article.CategoryGeneral:       "top",
	article.CategoryPolitics:      "politics",
	article.CategorySports:        "sports",
	article.CategoryCrime:         "crime",
	article.CategoryTechnology:    "technology",
	article.CategoryBusiness:      "business",
	article.CategoryEntertainment: "entertainment",
}

// NewsDataFetcher 通过 NewsData.io latest 接口搜索新闻
type NewsDataFetcher struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func (n *NewsDataFetcher) Name() string {
	return "newsdata"
}

type newsDataResponse struct {
	Status  string         `json:"status"`
	Results []newsDataItem `json:"results"`
}

type newsDataItem struct {
	ArticleID   string   `json:"article_id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	PubDate     string   `json:"pubDate"`
	ImageURL    string   `json:"image_url"`
	VideoURL    string   `json:"video_url"`
	SourceID    string   `json:"source_id"`
	SourceName  string   `json:"source_name"`
}

// Fetch 任何失败都只记录日志并返回空列表
func (n *NewsDataFetcher) Fetch(ctx context.Context, q Query) ([]article.Article, error) {
	if n.APIKey == "" {
		log.Printf("newsdata: skip fetch, api key not configured")
		return nil, nil
	}

	params := url.Values{}
	params.Set("apikey", n.APIKey)
	params.Set("q", q.Text)
	params.Set("country", "in")
	params.Set("language", "en")
	if code, ok := newsDataCategories[q.Category]; ok {
		params.Set("category", code)
	}

	base := n.BaseURL
	if base == "" {
		base = newsDataBaseURL
	}

	var resp newsDataResponse
	if err := getJSON(ctx, clientOrDefault(n.Client), strings.TrimRight(base, "/")+"/api/1/latest?"+params.Encode(), &resp); err != nil {
		log.Printf("newsdata: fetch %q error: %v", q.Text, err)
		return nil, nil
	}
	if resp.Status != "success" {
		log.Printf("newsdata: fetch %q got status %q", q.Text, resp.Status)
		return nil, nil
	}

	results := make([]article.Article, 0, len(resp.Results))
	for _, it := range resp.Results {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}

		id := it.ArticleID
		if id == "" {
			id = it.Link
		}
		link := strings.TrimSpace(it.Link)
		if link == "" {
			link = article.NoURL
		}

		content := visibleText(it.Content)
		if content == nil {
			content = visibleText(it.Description)
		}

		source := it.SourceName
		if source == "" {
			source = it.SourceID
		}

		hint := defaultHint(q)
		if len(it.Keywords) > 0 {
			kw := it.Keywords
			if len(kw) > 2 {
				kw = kw[:2]
			}
			hint = strings.ToLower(strings.Join(kw, " "))
		}

		a := article.Article{
			ID:        id,
			Headline:  title,
			Content:   content,
			URL:       link,
			ImageURL:  article.StringPtr(it.ImageURL),
			EmbedURL:  strings.TrimSpace(it.VideoURL),
			Timestamp: parseTime(newsDataTimeLayout, it.PubDate),
			Source:    source,
			District:  q.District,
			Category:  q.Category,
			AIHint:    hint,
		}
		if a.ID == "" {
			a.ID = fallbackID(n.Name(), a)
		}
		results = append(results, a)
	}

	if len(results) == 0 {
		log.Printf("newsdata: no items for %q", q.Text)
	}
	return results, nil
}
