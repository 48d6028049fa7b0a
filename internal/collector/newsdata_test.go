package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newsDataBody = `{
  "status": "success",
  "totalResults": 3,
  "results": [
    {
      "article_id": "nd-1",
      "title": "Dasara preparations begin in Mysuru",
      "link": "https://example.com/dasara",
      "keywords": ["Dasara", "Mysuru Palace", "tourism"],
      "description": "Preparations are under way.",
      "content": "ONLY AVAILABLE IN PAID PLANS",
      "pubDate": "2024-10-01 10:00:00",
      "image_url": "https://example.com/dasara.jpg",
      "video_url": null,
      "source_id": "deccanherald",
      "source_name": "Deccan Herald"
    },
    {
      "article_id": "nd-2",
      "title": "Mysuru traffic diversions",
      "link": "",
      "keywords": null,
      "description": "Only available in professional and corporate plans",
      "content": "only available in paid plans",
      "pubDate": "not a date",
      "image_url": null,
      "source_id": "toi",
      "source_name": ""
    },
    {
      "article_id": "nd-3",
      "title": "   ",
      "link": "https://example.com/empty"
    }
  ]
}`

func TestNewsDataFetcherMapsArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/1/latest", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		assert.Equal(t, "Mysuru Karnataka", r.URL.Query().Get("q"))
		assert.Equal(t, "crime", r.URL.Query().Get("category"))
		assert.Equal(t, "in", r.URL.Query().Get("country"))
		assert.Contains(t, r.Header.Get("Cache-Control"), "no-cache")
		assert.Equal(t, "no-cache", r.Header.Get("Pragma"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(newsDataBody))
	}))
	defer srv.Close()

	f := &NewsDataFetcher{APIKey: "secret", BaseURL: srv.URL}
	got, err := f.Fetch(context.Background(), Query{District: "Mysuru", Category: article.CategoryCrime, Text: "Mysuru Karnataka"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "nd-1", first.ID)
	assert.Equal(t, "Dasara preparations begin in Mysuru", first.Headline)
	require.NotNil(t, first.Content)
	assert.Equal(t, "Preparations are under way.", *first.Content)
	require.NotNil(t, first.ImageURL)
	assert.Equal(t, "https://example.com/dasara.jpg", *first.ImageURL)
	assert.Equal(t, time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, "Deccan Herald", first.Source)
	assert.Equal(t, "Mysuru", first.District)
	assert.Equal(t, article.CategoryCrime, first.Category)
	assert.Equal(t, "dasara mysuru palace", first.AIHint)

	second := got[1]
	assert.Nil(t, second.Content, "paywall placeholder must not leak as content")
	assert.Nil(t, second.ImageURL)
	assert.Equal(t, article.NoURL, second.URL)
	assert.True(t, second.Timestamp.IsZero())
	assert.Equal(t, "toi", second.Source)
	assert.Equal(t, "mysuru news", second.AIHint)
}

func TestNewsDataFetcherOmitsUnmappedCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, has := r.URL.Query()["category"]
		assert.False(t, has, "trending must not send a category filter")
		_, _ = w.Write([]byte(`{"status":"success","results":[]}`))
	}))
	defer srv.Close()

	f := &NewsDataFetcher{APIKey: "k", BaseURL: srv.URL}
	got, err := f.Fetch(context.Background(), Query{District: article.AllDistricts, Category: article.CategoryTrending, Text: "Karnataka"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewsDataFetcherSkipsWithoutAPIKey(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	f := &NewsDataFetcher{BaseURL: srv.URL}
	got, err := f.Fetch(context.Background(), Query{District: "Mysuru", Category: article.CategoryGeneral, Text: "Mysuru Karnataka"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestNewsDataFetcherDegradesOnUpstreamFailure(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"status":"error"}`},
		{"malformed json", http.StatusOK, `{"status":"success","results":[`},
		{"error status", http.StatusOK, `{"status":"error","results":[]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				_, _ = w.Write([]byte(c.body))
			}))
			defer srv.Close()

			f := &NewsDataFetcher{APIKey: "k", BaseURL: srv.URL}
			got, err := f.Fetch(context.Background(), Query{District: "Mysuru", Category: article.CategoryGeneral, Text: "Mysuru Karnataka"})
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestIsPaywalled(t *testing.T) {
	assert.True(t, isPaywalled("ONLY AVAILABLE IN PAID PLANS"))
	assert.True(t, isPaywalled("Content: only Available In Paid Plans."))
	assert.False(t, isPaywalled("The plans for the new flyover are available online"))
}

func TestNewsDataFetcherAssignsIDsWithoutLinkOrArticleID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","results":[
			{"title":"Hassan temple fair","link":"","source_name":"Prajavani","pubDate":"2024-10-03 05:00:00"},
			{"title":"Hassan rain alert","link":"","source_name":"Prajavani","pubDate":"2024-10-03 06:00:00"}
		]}`))
	}))
	defer srv.Close()

	f := &NewsDataFetcher{APIKey: "k", BaseURL: srv.URL}
	got, err := f.Fetch(context.Background(), Query{District: "Hassan", Category: article.CategoryGeneral, Text: "Hassan Karnataka"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEmpty(t, got[1].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}
