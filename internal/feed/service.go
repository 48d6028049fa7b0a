package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/LJTian/DistrictNews/internal/collector"
	"github.com/LJTian/DistrictNews/internal/processor"
)

var (
	ErrInvalidDistrict  = errors.New("invalid district")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrStoreUnavailable = errors.New("news store unavailable")
)

// Collector 由 collector.Aggregator 实现
type Collector interface {
	Collect(ctx context.Context, q collector.Query) []article.Article
	CollectCommunity(ctx context.Context, q collector.Query) ([]article.Article, error)
}

// RelevanceFilter 由 relevance.Filter 实现
type RelevanceFilter interface {
	Filter(ctx context.Context, articles []article.Article, district string) ([]article.Article, error)
}

// Enricher 可选的配图补全
type Enricher interface {
	Enrich(ctx context.Context, list []article.Article) []article.Article
}

type Request struct {
	District string
	Category string
}

// Service 对外唯一的取数入口：采集 -> 去重 -> 相关性过滤 -> 排序
type Service struct {
	collector Collector
	filter    RelevanceFilter
	enricher  Enricher
}

// NewService filter 与 enricher 可为 nil
func NewService(c Collector, f RelevanceFilter, e Enricher) *Service {
	return &Service{collector: c, filter: f, enricher: e}
}

// FetchNews 只在投稿存储整体不可用时返回错误；数据源或分类器失败都会降级
func (s *Service) FetchNews(ctx context.Context, req Request) ([]article.Article, error) {
	district, category, err := normalize(req)
	if err != nil {
		return nil, err
	}

	q := collector.Query{
		District: district,
		Category: category,
		Text:     article.SearchQuery(district),
	}

	var combined []article.Article
	if category == article.CategoryUserSubmitted {
		combined, err = s.collector.CollectCommunity(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	} else {
		combined = s.collector.Collect(ctx, q)
	}

	unique := processor.Deduplicate(combined)
	if len(unique) == 0 {
		return []article.Article{}, nil
	}

	result := unique
	if s.filter != nil {
		filtered, err := s.filter.Filter(ctx, unique, district)
		if err != nil {
			log.Printf("feed: relevance filter for %s failed, serving unfiltered: %v", district, err)
		} else if district != article.AllDistricts {
			result = article.WithCategory(filtered, category)
		} else {
			result = filtered
		}
	}

	result = processor.SortByRecency(result)
	if s.enricher != nil {
		result = s.enricher.Enrich(ctx, result)
	}
	return result, nil
}

// normalize 空区县视为全邦，空分类视为 Trending
func normalize(req Request) (string, article.Category, error) {
	district := article.AllDistricts
	if strings.TrimSpace(req.District) != "" {
		d, ok := article.NormalizeDistrict(req.District)
		if !ok {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidDistrict, req.District)
		}
		district = d
	}

	category := article.CategoryTrending
	if strings.TrimSpace(req.Category) != "" {
		c, ok := article.ParseCategory(req.Category)
		if !ok {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
		}
		category = c
	}
	return district, category, nil
}
