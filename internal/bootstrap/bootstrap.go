// Package bootstrap 汇总 cmd/api 与 cmd/collect 共用的组装逻辑
package bootstrap

import (
	"log"
	"net/http"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/LJTian/DistrictNews/internal/collector"
	"github.com/LJTian/DistrictNews/internal/config"
	"github.com/LJTian/DistrictNews/internal/feed"
	"github.com/LJTian/DistrictNews/internal/relevance"
	"github.com/LJTian/DistrictNews/internal/scheduler"
)

// NewFeedService community 为用户投稿存储；分类器不可用时以不过滤的方式运行
func NewFeedService(cfg *config.Config, community collector.SubmissionStore, enrich bool) *feed.Service {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	agg := collector.NewAggregator(
		&collector.CommunityFetcher{Store: community},
		&collector.NewsDataFetcher{APIKey: cfg.NewsDataAPIKey, BaseURL: cfg.NewsDataBaseURL, Client: client},
		&collector.GNewsFetcher{APIKey: cfg.GNewsAPIKey, BaseURL: cfg.GNewsBaseURL, Max: cfg.GNewsMax, Client: client},
	)

	var filter feed.RelevanceFilter
	classifier, err := relevance.NewOllamaClassifier(cfg.OllamaModel, cfg.ClassifierTimeout)
	if err != nil {
		log.Printf("warn: relevance classifier disabled: %v", err)
	} else {
		filter = relevance.NewFilter(classifier)
	}

	var enricher feed.Enricher
	if enrich {
		enricher = &collector.ImageEnricher{}
	}
	return feed.NewService(agg, filter, enricher)
}

// ArchiveTargets 跳过配置中无法识别的区县与分类
func ArchiveTargets(cfg *config.Config) []scheduler.Target {
	var districts []string
	for _, d := range cfg.ArchiveDistricts {
		if nd, ok := article.NormalizeDistrict(d); ok {
			districts = append(districts, nd)
		} else {
			log.Printf("warn: skip unknown archive district %q", d)
		}
	}
	var categories []article.Category
	for _, c := range cfg.ArchiveCategories {
		if pc, ok := article.ParseCategory(c); ok {
			categories = append(categories, pc)
		} else {
			log.Printf("warn: skip unknown archive category %q", c)
		}
	}
	return scheduler.Targets(districts, categories)
}
