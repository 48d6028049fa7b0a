package collector

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/LJTian/DistrictNews/internal/article"
)

// Aggregator 并发调用各数据源并按固定顺序拼接结果：
// providers 按注册顺序在前，用户投稿在最后（去重时先到先得依赖这个顺序）
type Aggregator struct {
	providers []Fetcher
	community Fetcher
}

func NewAggregator(community Fetcher, providers ...Fetcher) *Aggregator {
	return &Aggregator{providers: providers, community: community}
}

// Collect 单个数据源失败只记录日志，按贡献 0 条处理
func (a *Aggregator) Collect(ctx context.Context, q Query) []article.Article {
	fetchers := make([]Fetcher, 0, len(a.providers)+1)
	if q.Category != article.CategoryUserSubmitted {
		fetchers = append(fetchers, a.providers...)
	}
	if a.community != nil {
		fetchers = append(fetchers, a.community)
	}

	slots := make([][]article.Article, len(fetchers))

	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(idx int, fetcher Fetcher) {
			defer wg.Done()
			name := fetcher.Name()
			items, err := safeFetch(ctx, fetcher, q)
			if err != nil {
				log.Printf("fetch %s error: %v", name, err)
				return
			}
			slots[idx] = items
		}(i, f)
	}
	wg.Wait()

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	merged := make([]article.Article, 0, total)
	for _, s := range slots {
		merged = append(merged, s...)
	}

	log.Printf("collect %q (%s) done, sources=%d articles=%d", q.District, q.Category, len(fetchers), len(merged))
	return merged
}

// CollectCommunity 只读用户投稿，错误原样向上返回
func (a *Aggregator) CollectCommunity(ctx context.Context, q Query) ([]article.Article, error) {
	if a.community == nil {
		return nil, nil
	}
	return safeFetch(ctx, a.community, q)
}

func safeFetch(ctx context.Context, f Fetcher, q Query) (items []article.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("%s: panic: %v", f.Name(), r)
		}
	}()
	return f.Fetch(ctx, q)
}
