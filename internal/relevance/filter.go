package relevance

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/LJTian/DistrictNews/internal/article"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize 单次送给分类器的文章数上限
const DefaultBatchSize = 5

// ErrClassification 任一批次分类失败时整体返回该错误
var ErrClassification = errors.New("relevance classification failed")

type ClassifyRequest struct {
	Articles []article.Article `json:"articles"`
	District string            `json:"district"`
}

type ClassifyResponse struct {
	Articles []article.Article `json:"articles"`
}

// Classifier 外部相关性分类能力。返回的文章可能被改写，甚至包含输入中不存在的条目，
// 调用方只应信任其中的 id
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error)
}

// Filter 把文章分批交给分类器，并把结果对齐回原始输入
type Filter struct {
	classifier Classifier
	batchSize  int
}

func NewFilter(c Classifier) *Filter {
	return &Filter{classifier: c, batchSize: DefaultBatchSize}
}

// WithBatchSize 仅用于调整批大小，<=0 时保持默认
func (f *Filter) WithBatchSize(n int) *Filter {
	if n > 0 {
		f.batchSize = n
	}
	return f
}

// Filter 返回与 district 相关的文章子集，元素始终取自原始输入。
// district 为全省哨兵时原样返回，不调用分类器。
// 结果按批次各自对齐：分类器把某个 id 放进另一批的响应里时，该条目会被丢弃。
func (f *Filter) Filter(ctx context.Context, articles []article.Article, district string) ([]article.Article, error) {
	if district == article.AllDistricts {
		return articles, nil
	}
	if len(articles) == 0 {
		return []article.Article{}, nil
	}

	batches := partition(articles, f.batchSize)
	outputs := make([][]article.Article, len(batches))

	// 不用 WithContext：某一批失败时其余批次照常跑完
	var g errgroup.Group
	for i, batch := range batches {
		g.Go(func() error {
			resp, err := f.classifier.Classify(ctx, ClassifyRequest{Articles: batch, District: district})
			if err != nil {
				return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
			}
			outputs[i] = resp.Articles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	kept := make([]article.Article, 0, len(articles))
	dropped := 0
	for i, batch := range batches {
		survivors, unknown := reconcile(batch, outputs[i])
		kept = append(kept, survivors...)
		dropped += unknown
	}
	if dropped > 0 {
		log.Printf("relevance: %s dropped %d unknown ids from classifier output", district, dropped)
	}
	log.Printf("relevance: %s kept %d/%d articles in %d batches", district, len(kept), len(articles), len(batches))

	return kept, nil
}

// partition 按输入顺序切分，每批最多 size 篇
func partition(articles []article.Article, size int) [][]article.Article {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]article.Article, 0, (len(articles)+size-1)/size)
	for start := 0; start < len(articles); start += size {
		end := start + size
		if end > len(articles) {
			end = len(articles)
		}
		batches = append(batches, articles[start:end:end])
	}
	return batches
}

// reconcile 只保留 id 出现在本批原始输入中的条目，并换回原始文章；
// 返回保留结果和被丢弃的未知 id 数
func reconcile(originals, classified []article.Article) ([]article.Article, int) {
	lookup := make(map[string]article.Article, len(originals))
	for _, a := range originals {
		if _, ok := lookup[a.ID]; !ok {
			lookup[a.ID] = a
		}
	}

	out := make([]article.Article, 0, len(classified))
	seen := make(map[string]struct{}, len(classified))
	unknown := 0
	for _, c := range classified {
		orig, ok := lookup[c.ID]
		if !ok {
			unknown++
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, orig)
	}
	return out, unknown
}
