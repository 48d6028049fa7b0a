package collector

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
)

const (
	userAgent            = "DistrictNewsBot/1.0"
	maxResponseBytes     = 2 << 20 // 2MB
	defaultClientTimeout = 15 * time.Second
)

// Query 一次采集请求的参数
type Query struct {
	District string
	Category article.Category
	// Text 交给上游搜索接口的自由文本
	Text string
}

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]article.Article, error)
}

// 上游免费档会把正文替换成这类占位文案
var paywallPhrases = []string{
	"only available in paid plans",
	"only available in professional and corporate plans",
}

func isPaywalled(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range paywallPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// visibleText 返回可展示的文本；空串或付费墙占位文案返回 nil
func visibleText(s string) *string {
	if isPaywalled(s) {
		return nil
	}
	return article.StringPtr(s)
}

func parseTime(layout, s string) time.Time {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func defaultHint(q Query) string {
	district := q.District
	if district == "" {
		district = article.AllDistricts
	}
	return strings.ToLower(district) + " news"
}

// fallbackID 上游既没有 id 也没有链接时，按身份键生成稳定的 id
func fallbackID(prefix string, a article.Article) string {
	sum := sha1.Sum([]byte(a.IdentityKey()))
	return prefix + "-" + hex.EncodeToString(sum[:10])
}

func clientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultClientTimeout}
}

// getJSON 以禁用缓存的方式请求上游 JSON 接口
func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		// url.Error 会带上完整 URL（含 apikey），只保留底层错误
		var ue *url.Error
		if errors.As(err, &ue) {
			return ue.Err
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
