package collector

import (
	"context"
	"fmt"
	"log"

	"github.com/LJTian/DistrictNews/internal/article"
)

// SubmissionStore 用户投稿的持久化存储（只读）
type SubmissionStore interface {
	// ListUserArticles district 为 article.AllDistricts 时返回全部区县
	ListUserArticles(ctx context.Context, district string) ([]article.Article, error)
	// GetProfiles 返回 userID -> 显示名，查不到的用户不出现在结果里
	GetProfiles(ctx context.Context, userIDs []string) (map[string]string, error)
}

// CommunityFetcher 把用户投稿当作一个普通数据源
type CommunityFetcher struct {
	Store SubmissionStore
}

func (c *CommunityFetcher) Name() string {
	return "community"
}

// Fetch 存储出错时直接返回错误，由调用方决定是否降级
func (c *CommunityFetcher) Fetch(ctx context.Context, q Query) ([]article.Article, error) {
	list, err := c.Store.ListUserArticles(ctx, q.District)
	if err != nil {
		return nil, fmt.Errorf("community: list submissions: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(list))
	for _, a := range list {
		if a.UserID == "" || a.Author != "" {
			continue
		}
		if _, ok := seen[a.UserID]; ok {
			continue
		}
		seen[a.UserID] = struct{}{}
		ids = append(ids, a.UserID)
	}

	var names map[string]string
	if len(ids) > 0 {
		names, err = c.Store.GetProfiles(ctx, ids)
		if err != nil {
			// 作者信息只是装饰，失败不影响文章本身
			log.Printf("community: lookup %d profiles error: %v", len(ids), err)
		}
	}

	out := make([]article.Article, 0, len(list))
	for _, a := range list {
		if a.Author == "" {
			a.Author = names[a.UserID]
		}
		if a.URL == "" {
			a.URL = article.NoURL
		}
		a.Source = article.SourceUserSubmitted
		out = append(out, a)
	}
	return out, nil
}
