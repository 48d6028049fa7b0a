package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStoreUnavailable 投稿存储不可用（可重试）
var ErrStoreUnavailable = errors.New("submission store unavailable")

const (
	articlesCollection = "articles"
	profilesCollection = "profiles"

	indexByDistrict = "source_1_district_1_published_at_-1"
	indexBySource   = "source_1_published_at_-1"

	profileCacheTTL  = 10 * time.Minute
	profileBatchSize = 100
)

type userArticleDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Headline    string             `bson:"headline"`
	Content     string             `bson:"content,omitempty"`
	URL         string             `bson:"url,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty"`
	EmbedURL    string             `bson:"embed_url,omitempty"`
	PublishedAt time.Time          `bson:"published_at"`
	Source      string             `bson:"source"`
	District    string             `bson:"district"`
	AIHint      string             `bson:"ai_hint,omitempty"`
	UserID      string             `bson:"user_id,omitempty"`
	Author      string             `bson:"author,omitempty"`
}

type profileDoc struct {
	ID          string `bson:"_id"`
	DisplayName string `bson:"display_name"`
	Name        string `bson:"name"`
}

// CommunityStore 基于 MongoDB 的用户投稿与用户资料存储（只读）
type CommunityStore struct {
	articles *mongo.Collection
	profiles *mongo.Collection
	cache    *redis.Client
}

// ConnectMongo 连接并 ping 一次
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// NewCommunityStore cache 可为 nil
func NewCommunityStore(db *mongo.Database, cache *redis.Client) *CommunityStore {
	return &CommunityStore{
		articles: db.Collection(articlesCollection),
		profiles: db.Collection(profilesCollection),
		cache:    cache,
	}
}

// EnsureIndexes 创建按时间倒序查询所需的复合索引
func (s *CommunityStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "source", Value: 1}, {Key: "district", Value: 1}, {Key: "published_at", Value: -1}},
			Options: options.Index().SetName(indexByDistrict),
		},
		{
			Keys:    bson.D{{Key: "source", Value: 1}, {Key: "published_at", Value: -1}},
			Options: options.Index().SetName(indexBySource),
		},
	})
	return err
}

// ListUserArticles 按时间倒序返回投稿；排序索引缺失时退化为无序查询并在进程内排序
func (s *CommunityStore) ListUserArticles(ctx context.Context, district string) ([]article.Article, error) {
	filter := bson.M{"source": article.SourceUserSubmitted}
	hint := indexBySource
	if district != "" && district != article.AllDistricts {
		filter["district"] = district
		hint = indexByDistrict
	}

	ordered := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetHint(hint)
	docs, err := s.find(ctx, filter, ordered)
	if err != nil {
		if !isMissingIndex(err) {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		log.Printf("community: ordered query needs index %s, falling back: %v", hint, err)

		docs, err = s.find(ctx, filter, options.Find())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		sort.SliceStable(docs, func(i, j int) bool {
			return docs[i].PublishedAt.After(docs[j].PublishedAt)
		})
	}

	out := make([]article.Article, 0, len(docs))
	for _, d := range docs {
		url := d.URL
		if url == "" {
			url = article.NoURL
		}
		out = append(out, article.Article{
			ID:        d.ID.Hex(),
			Headline:  d.Headline,
			Content:   article.StringPtr(d.Content),
			URL:       url,
			ImageURL:  article.StringPtr(d.ImageURL),
			EmbedURL:  d.EmbedURL,
			Timestamp: d.PublishedAt,
			Source:    article.SourceUserSubmitted,
			District:  d.District,
			Category:  article.CategoryUserSubmitted,
			AIHint:    d.AIHint,
			UserID:    d.UserID,
			Author:    d.Author,
		})
	}
	return out, nil
}

func (s *CommunityStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]userArticleDoc, error) {
	cur, err := s.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []userArticleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// isMissingIndex hint 指向不存在的索引，或无索引排序超出内存限制
func isMissingIndex(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	if se.HasErrorCode(2) && se.HasErrorMessage("index") {
		return true
	}
	return se.HasErrorCode(291) || se.HasErrorCode(292) || se.HasErrorCode(96)
}

func profileCacheKey(id string) string {
	return "profile:" + id
}

// GetProfiles 先查 Redis，未命中的分批 $in 查询 MongoDB
func (s *CommunityStore) GetProfiles(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	missing := make([]string, 0, len(userIDs))

	if s.cache != nil && len(userIDs) > 0 {
		keys := make([]string, len(userIDs))
		for i, id := range userIDs {
			keys[i] = profileCacheKey(id)
		}
		vals, err := s.cache.MGet(ctx, keys...).Result()
		if err != nil {
			log.Printf("community: profile cache error: %v", err)
			missing = append(missing, userIDs...)
		} else {
			for i, v := range vals {
				if name, ok := v.(string); ok && name != "" {
					names[userIDs[i]] = name
					continue
				}
				missing = append(missing, userIDs[i])
			}
		}
	} else {
		missing = append(missing, userIDs...)
	}

	for start := 0; start < len(missing); start += profileBatchSize {
		end := start + profileBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		found, err := s.findProfiles(ctx, missing[start:end])
		if err != nil {
			return names, err
		}
		for id, name := range found {
			names[id] = name
		}
		s.cacheProfiles(ctx, found)
	}

	return names, nil
}

func (s *CommunityStore) findProfiles(ctx context.Context, ids []string) (map[string]string, error) {
	cur, err := s.profiles.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []profileDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	found := make(map[string]string, len(docs))
	for _, d := range docs {
		name := d.DisplayName
		if name == "" {
			name = d.Name
		}
		if name != "" {
			found[d.ID] = name
		}
	}
	return found, nil
}

func (s *CommunityStore) cacheProfiles(ctx context.Context, found map[string]string) {
	if s.cache == nil || len(found) == 0 {
		return
	}
	pipe := s.cache.Pipeline()
	for id, name := range found {
		pipe.Set(ctx, profileCacheKey(id), name, profileCacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("community: cache %d profiles error: %v", len(found), err)
	}
}
