package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/LJTian/DistrictNews/internal/feed"
	"github.com/LJTian/DistrictNews/internal/processor"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const defaultParallelism = 4

// Target 一个归档目标（区县 + 分类）
type Target struct {
	District string
	Category article.Category
}

// Targets 生成区县与分类的笛卡尔积
func Targets(districts []string, categories []article.Category) []Target {
	out := make([]Target, 0, len(districts)*len(categories))
	for _, d := range districts {
		for _, c := range categories {
			out = append(out, Target{District: d, Category: c})
		}
	}
	return out
}

type NewsFeed interface {
	FetchNews(ctx context.Context, req feed.Request) ([]article.Article, error)
}

type Sink interface {
	SaveBatch(ctx context.Context, items []processor.ProcessedNews) error
}

type Publisher interface {
	Publish(ctx context.Context, district string, category article.Category, items []article.Article) error
}

type Scheduler struct {
	cron        *cron.Cron
	job         cron.Job
	targets     []Target
	feed        NewsFeed
	processor   *processor.ArchiveProcessor
	sink        Sink
	publisher   Publisher
	parallelism int
}

// New publisher 可为 nil
func New(spec string, targets []Target, f NewsFeed, p *processor.ArchiveProcessor, sink Sink, pub Publisher) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:        c,
		targets:     targets,
		feed:        f,
		processor:   p,
		sink:        sink,
		publisher:   pub,
		parallelism: defaultParallelism,
	}

	// 定时触发与启动首轮共用同一个包装后的 job，上一轮未结束时跳过
	s.job = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).
		Then(cron.FuncJob(func() { s.RunOnce(context.Background()) }))
	_, err := c.AddJob(spec, s.job)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮归档，避免与服务启动后的首批请求争抢上游配额
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, s.job.Run)
}

// Stop 返回的 context 在正在执行的任务结束后关闭
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce 对全部目标执行一轮归档，返回写入的记录数
func (s *Scheduler) RunOnce(ctx context.Context) int {
	log.Printf("start archive job, targets=%d", len(s.targets))

	var saved atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for _, t := range s.targets {
		g.Go(func() error {
			saved.Add(int64(s.runTarget(ctx, t)))
			// 单个目标失败只记日志，不影响其他目标
			return nil
		})
	}
	_ = g.Wait()

	log.Printf("archive job done, saved=%d", saved.Load())
	return int(saved.Load())
}

func (s *Scheduler) runTarget(ctx context.Context, t Target) int {
	name := t.District + "/" + string(t.Category)

	items, err := s.feed.FetchNews(ctx, feed.Request{District: t.District, Category: string(t.Category)})
	if err != nil {
		log.Printf("archive %s fetch error: %v", name, err)
		return 0
	}
	if len(items) == 0 {
		log.Printf("archive %s got 0 items", name)
		return 0
	}

	processed := s.processor.Process(items, t.District, t.Category)
	if len(processed) == 0 {
		return 0
	}
	if err := s.sink.SaveBatch(ctx, processed); err != nil {
		log.Printf("save %s batch error: %v", name, err)
		return 0
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, t.District, t.Category, items); err != nil {
			log.Printf("publish %s error: %v", name, err)
		}
	}

	// 条数 = 本轮处理后的数量（非“新增数”，已存在会更新）
	log.Printf("%s done, fetched=%d saved=%d items", name, len(items), len(processed))
	return len(processed)
}
