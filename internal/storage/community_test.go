package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func submissionDoc(id primitive.ObjectID, headline, district string, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "headline", Value: headline},
		{Key: "content", Value: "  body of " + headline + "  "},
		{Key: "published_at", Value: primitive.NewDateTimeFromTime(at)},
		{Key: "source", Value: article.SourceUserSubmitted},
		{Key: "district", Value: district},
		{Key: "user_id", Value: "u1"},
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestListUserArticlesOrdered(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("maps documents", func(mt *mtest.T) {
		store := NewCommunityStore(mt.DB, nil)
		newer := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
		older := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		id1, id2 := primitive.NewObjectID(), primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.articles", mtest.FirstBatch,
			submissionDoc(id1, "Lake cleanup drive", "Mysuru", newer),
			submissionDoc(id2, "Road repairs", "Mysuru", older),
		))

		got, err := store.ListUserArticles(context.Background(), "Mysuru")
		require.NoError(mt, err)
		require.Len(mt, got, 2)

		assert.Equal(mt, id1.Hex(), got[0].ID)
		assert.Equal(mt, "Lake cleanup drive", got[0].Headline)
		require.NotNil(mt, got[0].Content)
		assert.Equal(mt, "body of Lake cleanup drive", *got[0].Content)
		assert.Equal(mt, article.NoURL, got[0].URL)
		assert.Nil(mt, got[0].ImageURL)
		assert.Equal(mt, article.SourceUserSubmitted, got[0].Source)
		assert.Equal(mt, article.CategoryUserSubmitted, got[0].Category)
		assert.True(mt, newer.Equal(got[0].Timestamp))
		assert.Equal(mt, id2.Hex(), got[1].ID)
	})
}

func TestListUserArticlesFallsBackWithoutIndex(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sorts in process", func(mt *mtest.T) {
		store := NewCommunityStore(mt.DB, nil)
		t1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		t2 := t1.Add(time.Hour)
		t3 := t1.Add(2 * time.Hour)

		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    2,
				Name:    "BadValue",
				Message: "error processing query: planner returned error :: caused by :: hint provided does not correspond to an existing index",
			}),
			mtest.CreateCursorResponse(0, "test.articles", mtest.FirstBatch,
				submissionDoc(primitive.NewObjectID(), "first", "Udupi", t1),
				submissionDoc(primitive.NewObjectID(), "third", "Udupi", t3),
				submissionDoc(primitive.NewObjectID(), "second", "Udupi", t2),
			),
		)

		got, err := store.ListUserArticles(context.Background(), "Udupi")
		require.NoError(mt, err)
		require.Len(mt, got, 3)
		assert.Equal(mt, "third", got[0].Headline)
		assert.Equal(mt, "second", got[1].Headline)
		assert.Equal(mt, "first", got[2].Headline)
	})
}

func TestListUserArticlesUnavailable(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("other server errors", func(mt *mtest.T) {
		store := NewCommunityStore(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "command find requires authentication",
		}))

		got, err := store.ListUserArticles(context.Background(), article.AllDistricts)
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, ErrStoreUnavailable))
		assert.Nil(mt, got)
	})
}

func TestGetProfilesUsesCache(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("cache then mongo", func(mt *mtest.T) {
		mr, rdb := newTestRedis(mt.T)
		require.NoError(mt, mr.Set(profileCacheKey("u1"), "Asha"))
		store := NewCommunityStore(mt.DB, rdb)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.profiles", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u2"}, {Key: "display_name", Value: "Ravi K"}},
			bson.D{{Key: "_id", Value: "u3"}, {Key: "name", Value: "Meena"}},
		))

		names, err := store.GetProfiles(context.Background(), []string{"u1", "u2", "u3", "u4"})
		require.NoError(mt, err)
		assert.Equal(mt, map[string]string{"u1": "Asha", "u2": "Ravi K", "u3": "Meena"}, names)

		cached, err := mr.Get(profileCacheKey("u2"))
		require.NoError(mt, err)
		assert.Equal(mt, "Ravi K", cached)
		assert.Greater(mt, mr.TTL(profileCacheKey("u2")), time.Duration(0))
		assert.False(mt, mr.Exists(profileCacheKey("u4")))
	})

	mt.Run("fully cached skips mongo", func(mt *mtest.T) {
		mr, rdb := newTestRedis(mt.T)
		require.NoError(mt, mr.Set(profileCacheKey("u1"), "Asha"))
		store := NewCommunityStore(mt.DB, rdb)

		// 没有排队的 mock 响应，访问 MongoDB 会报错
		names, err := store.GetProfiles(context.Background(), []string{"u1"})
		require.NoError(mt, err)
		assert.Equal(mt, map[string]string{"u1": "Asha"}, names)
	})
}

func TestGetProfilesWithoutCache(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("mongo error", func(mt *mtest.T) {
		store := NewCommunityStore(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Name: "InterruptedAtShutdown", Message: "shutting down"}))

		_, err := store.GetProfiles(context.Background(), []string{"u1"})
		require.Error(mt, err)
	})
}

func TestIsMissingIndex(t *testing.T) {
	assert.False(t, isMissingIndex(errors.New("plain")))
	assert.False(t, isMissingIndex(nil))
}
