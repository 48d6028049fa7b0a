package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/LJTian/DistrictNews/internal/feed"
	"github.com/LJTian/DistrictNews/internal/storage"
	"github.com/gin-gonic/gin"
)

type NewsFeed interface {
	FetchNews(ctx context.Context, req feed.Request) ([]article.Article, error)
}

// Archive 由 storage.Store 实现
type Archive interface {
	ListNews(ctx context.Context, district, category string, limit int, date string) ([]storage.News, error)
	ListSources(ctx context.Context) ([]storage.Source, error)
}

type Server struct {
	feed    NewsFeed
	archive Archive
}

// NewServer archive 为 nil 时不注册归档相关路由
func NewServer(f NewsFeed, archive Archive) *Server {
	return &Server{feed: f, archive: archive}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.listNews)
		v1.GET("/districts", s.listDistricts)
		v1.GET("/categories", s.listCategories)
		if s.archive != nil {
			v1.GET("/archive", s.listArchive)
			v1.GET("/sources", s.listSources)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func (s *Server) listNews(c *gin.Context) {
	req := feed.Request{
		District: c.DefaultQuery("district", article.AllDistricts),
		Category: c.DefaultQuery("category", string(article.CategoryTrending)),
	}

	items, err := s.feed.FetchNews(c.Request.Context(), req)
	switch {
	case err == nil:
		ok(c, items)
	case errors.Is(err, feed.ErrInvalidDistrict), errors.Is(err, feed.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_argument",
			"message": err.Error(),
		})
	case errors.Is(err, feed.ErrStoreUnavailable):
		log.Printf("api: news %s/%s unavailable (request %s): %v", req.District, req.Category, c.GetString("request_id"), err)
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":      "unavailable",
			"message":   "news store temporarily unavailable",
			"retryable": true,
		})
	default:
		log.Printf("api: news %s/%s error (request %s): %v", req.District, req.Category, c.GetString("request_id"), err)
		internalError(c)
	}
}

func (s *Server) listDistricts(c *gin.Context) {
	all := make([]string, 0, len(article.Districts)+1)
	all = append(all, article.AllDistricts)
	all = append(all, article.Districts...)
	ok(c, all)
}

func (s *Server) listCategories(c *gin.Context) {
	ok(c, article.Categories)
}

func (s *Server) listArchive(c *gin.Context) {
	district := c.Query("district")
	if district != "" {
		d, valid := article.NormalizeDistrict(district)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_argument", "message": "unknown district"})
			return
		}
		district = d
	}
	category := c.Query("category")
	if category != "" {
		cat, valid := article.ParseCategory(category)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_argument", "message": "unknown category"})
			return
		}
		category = string(cat)
	}
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_argument", "message": "date must be YYYY-MM-DD"})
			return
		}
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	items, err := s.archive.ListNews(c.Request.Context(), district, category, limit, date)
	if err != nil {
		log.Printf("api: archive error: %v", err)
		internalError(c)
		return
	}
	ok(c, items)
}

func (s *Server) listSources(c *gin.Context) {
	list, err := s.archive.ListSources(c.Request.Context())
	if err != nil {
		log.Printf("api: sources error: %v", err)
		internalError(c)
		return
	}
	ok(c, list)
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
