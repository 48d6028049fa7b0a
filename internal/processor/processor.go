package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
)

// summaryMaxRunes 归档摘要的最大长度（按 rune）
const summaryMaxRunes = 200

// Deduplicate 按身份键去重，先到先得，保持原有顺序，不合并字段
func Deduplicate(items []article.Article) []article.Article {
	out := make([]article.Article, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, it := range items {
		key := it.IdentityKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// SortByRecency 按时间倒序稳定排序，返回新切片；零值时间排在最后
func SortByRecency(items []article.Article) []article.Article {
	out := make([]article.Article, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ProcessedNews 是写入归档存储前的统一结构
type ProcessedNews struct {
	ID          string
	Title       string
	URL         string
	Source      string
	District    string
	Category    string
	Summary     string
	ImageURL    string
	PublishedAt time.Time
	RawData     map[string]any
}

// ArchiveProcessor 把管道输出转换成归档记录
type ArchiveProcessor struct{}

func NewArchiveProcessor() *ArchiveProcessor {
	return &ArchiveProcessor{}
}

// Process district 为请求时的区县，归档按请求维度落库
func (p *ArchiveProcessor) Process(items []article.Article, district string, category article.Category) []ProcessedNews {
	out := make([]ProcessedNews, 0, len(items))
	seen := make(map[string]struct{})

	for _, it := range items {
		key := it.IdentityKey()
		id := hashKey(district + "|" + key)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		summary := ""
		if it.Content != nil {
			summary = truncateRunes(strings.TrimSpace(*it.Content), summaryMaxRunes)
		}
		if summary == "" {
			// 没有正文时用标题兜底
			summary = strings.TrimSpace(it.Headline)
		}

		image := ""
		if it.ImageURL != nil {
			image = *it.ImageURL
		}

		raw := map[string]any{
			"article_id": it.ID,
		}
		if it.EmbedURL != "" {
			raw["embed_url"] = it.EmbedURL
		}
		if it.AIHint != "" {
			raw["ai_hint"] = it.AIHint
		}
		if it.Author != "" {
			raw["author"] = it.Author
		}
		if it.UserID != "" {
			raw["user_id"] = it.UserID
		}

		out = append(out, ProcessedNews{
			ID:          id,
			Title:       strings.TrimSpace(it.Headline),
			URL:         it.URL,
			Source:      it.Source,
			District:    district,
			Category:    string(category),
			Summary:     summary,
			ImageURL:    image,
			PublishedAt: it.Timestamp,
			RawData:     raw,
		})
	}

	return out
}

func hashKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

// truncateRunes 按 rune 截断，超长时追加省略号
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
