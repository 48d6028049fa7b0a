package article

import (
	"strings"
	"time"
)

// NoURL 表示没有外部链接的文章（例如尚未分配链接的用户投稿）
const NoURL = "#"

// SourceUserSubmitted 用户投稿文章的 source 标记
const SourceUserSubmitted = "User Submitted"

// Category 文章分类，取值固定
type Category string

const (
	CategoryTrending      Category = "Trending"
	CategoryGeneral       Category = "General"
	CategoryPolitics      Category = "Politics"
	CategorySports        Category = "Sports"
	CategoryCrime         Category = "Crime"
	CategoryTechnology    Category = "Technology"
	CategoryBusiness      Category = "Business"
	CategoryEntertainment Category = "Entertainment"
	CategoryUserSubmitted Category = "User Submitted"
)

// Categories 按展示顺序列出全部分类
var Categories = []Category{
	CategoryTrending,
	CategoryGeneral,
	CategoryPolitics,
	CategorySports,
	CategoryCrime,
	CategoryTechnology,
	CategoryBusiness,
	CategoryEntertainment,
	CategoryUserSubmitted,
}

// ParseCategory 忽略大小写解析分类
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Article 管道中流转的统一文章结构
type Article struct {
	ID        string    `json:"id"`
	Headline  string    `json:"headline"`
	Content   *string   `json:"content"`
	URL       string    `json:"url"`
	ImageURL  *string   `json:"imageUrl"`
	EmbedURL  string    `json:"embedUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	District  string    `json:"district"`
	Category  Category  `json:"category"`
	AIHint    string    `json:"data-ai-hint,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Author    string    `json:"author,omitempty"`
}

// IdentityKey 去重用的身份键：有意义的 URL 优先，否则退化为 headline+source
func (a Article) IdentityKey() string {
	if a.URL != "" && a.URL != NoURL {
		return a.URL
	}
	return a.Headline + a.Source
}

// WithCategory 返回重新打上分类标签的副本，不修改入参
func WithCategory(list []Article, c Category) []Article {
	out := make([]Article, len(list))
	for i, a := range list {
		a.Category = c
		out[i] = a
	}
	return out
}

// StringPtr 把空串视为 nil
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
