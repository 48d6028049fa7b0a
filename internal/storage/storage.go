package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LJTian/DistrictNews/internal/processor"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const listCacheTTL = 5 * time.Minute

// Source 描述一个数据源，例如 newsdata / gnews / community
type Source struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Code    string `gorm:"size:64;uniqueIndex" json:"code"`
	Name    string `gorm:"size:128" json:"name"`
	BaseURL string `gorm:"size:256" json:"baseUrl"`
	Status  string `gorm:"size:32;index" json:"status"` // active / disabled

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// News 归档的过滤后文章；同一篇文章在不同区县下是不同记录
type News struct {
	ID            string            `gorm:"primaryKey;size:40" json:"id"`
	Title         string            `gorm:"size:512" json:"title"`
	URL           string            `gorm:"size:1024;index" json:"url"`
	Source        string            `gorm:"size:128;index" json:"source"`
	District      string            `gorm:"size:64;index" json:"district"`
	Category      string            `gorm:"size:32;index" json:"category"`
	Summary       string            `gorm:"size:600" json:"summary"`
	ImageURL      string            `gorm:"size:1024" json:"imageUrl"`
	PublishedAt   time.Time         `gorm:"index" json:"publishedAt"`
	PublishedDate string            `gorm:"size:10;index" json:"publishedDate"` // 日期 YYYY-MM-DD（印度时区）
	ExtraData     datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStore redisAddr 为空时不启用缓存
func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Source{}, &News{}); err != nil {
		return nil, err
	}

	return &Store{DB: db, Redis: NewRedis(redisAddr)}, nil
}

// NewRedis ping 失败只告警，缓存不可用时各调用方自行回源
func NewRedis(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}
	return rdb
}

// EnsureSource 确保某个数据源存在
func (s *Store) EnsureSource(code, name, baseURL string) (*Source, error) {
	src := &Source{}
	if err := s.DB.Where("code = ?", code).First(src).Error; err == nil {
		return src, nil
	}

	src = &Source{
		Code:    code,
		Name:    name,
		BaseURL: baseURL,
		Status:  "active",
	}
	if err := s.DB.Create(src).Error; err != nil {
		return nil, err
	}
	return src, nil
}

// ListSources 按注册顺序返回全部数据源
func (s *Store) ListSources(ctx context.Context) ([]Source, error) {
	var list []Source
	err := s.DB.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}

// 印度标准时间，用于日期展示与筛选
var locIST *time.Location

func init() {
	locIST, _ = time.LoadLocation("Asia/Kolkata")
	if locIST == nil {
		locIST = time.FixedZone("IST", 5*3600+1800)
	}
}

// toValidUTF8 避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// SaveBatch 保存一批归档记录，已存在的按 ID 更新
func (s *Store) SaveBatch(ctx context.Context, items []processor.ProcessedNews) error {
	db := s.DB.WithContext(ctx)
	for _, it := range items {
		pubDate := ""
		if !it.PublishedAt.IsZero() {
			pubDate = it.PublishedAt.In(locIST).Format("2006-01-02")
		}
		title := truncateRunesDB(toValidUTF8(it.Title), 512)
		summary := truncateRunesDB(toValidUTF8(it.Summary), 600)
		n := &News{
			ID:            it.ID,
			Title:         title,
			URL:           truncateRunesDB(it.URL, 1024),
			Source:        it.Source,
			District:      it.District,
			Category:      it.Category,
			Summary:       summary,
			ImageURL:      truncateRunesDB(it.ImageURL, 1024),
			PublishedAt:   it.PublishedAt,
			PublishedDate: pubDate,
			ExtraData:     datatypes.JSONMap(it.RawData),
		}

		if err := db.Where("id = ?", it.ID).FirstOrCreate(n).Error; err != nil {
			return err
		}
		if err := db.Model(n).Updates(map[string]any{
			"title":          title,
			"summary":        summary,
			"image_url":      n.ImageURL,
			"published_at":   it.PublishedAt,
			"published_date": pubDate,
		}).Error; err != nil {
			log.Printf("archive: update %s error: %v", it.ID, err)
		}
	}

	// 不做通配删除，依赖短 TTL 的列表缓存自然过期
	return nil
}

func listCacheKey(district, category string, limit int, date string) string {
	return fmt.Sprintf("news:archive:%s:%s:%d:%s", district, category, limit, date)
}

// ListNews 按区县、分类与可选日期返回归档，使用 Redis 做简单缓存
// district / category: 可为空
// date: 可选，格式 2006-01-02
func (s *Store) ListNews(ctx context.Context, district, category string, limit int, date string) ([]News, error) {
	if limit <= 0 || limit > 500 {
		limit = 20
	}

	cacheKey := listCacheKey(district, category, limit, date)
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []News
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var list []News
	db := s.DB.WithContext(ctx).Model(&News{})
	if district != "" {
		db = db.Where("district = ?", district)
	}
	if category != "" {
		db = db.Where("category = ?", category)
	}
	if date != "" {
		db = db.Where("published_date = ?", date)
	}
	if err := db.Order("published_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}

	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}

	return list, nil
}
