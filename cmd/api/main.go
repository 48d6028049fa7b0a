package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/DistrictNews/internal/api"
	"github.com/LJTian/DistrictNews/internal/article"
	"github.com/LJTian/DistrictNews/internal/bootstrap"
	"github.com/LJTian/DistrictNews/internal/config"
	"github.com/LJTian/DistrictNews/internal/processor"
	"github.com/LJTian/DistrictNews/internal/publisher"
	"github.com/LJTian/DistrictNews/internal/scheduler"
	"github.com/LJTian/DistrictNews/internal/storage"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 确保各个数据源存在
	for _, src := range []struct{ code, name, url string }{
		{"newsdata", "NewsData.io", cfg.NewsDataBaseURL},
		{"gnews", "GNews", cfg.GNewsBaseURL},
		{"community", article.SourceUserSubmitted, ""},
	} {
		if _, err := store.EnsureSource(src.code, src.name, src.url); err != nil {
			log.Fatalf("ensure source %s failed: %v", src.code, err)
		}
	}

	mongoClient, err := storage.ConnectMongo(context.Background(), cfg.MongoURI)
	if err != nil {
		log.Fatalf("init mongo failed: %v", err)
	}
	community := storage.NewCommunityStore(mongoClient.Database(cfg.MongoDatabase), store.Redis)
	if err := community.EnsureIndexes(context.Background()); err != nil {
		log.Printf("warn: ensure submission indexes: %v", err)
	}

	svc := bootstrap.NewFeedService(cfg, community, cfg.EnrichImages)

	var pub scheduler.Publisher
	if cfg.KafkaBroker != "" {
		kp := publisher.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		defer kp.Close()
		pub = kp
	}

	s, err := scheduler.New(cfg.CronSpec, bootstrap.ArchiveTargets(cfg), svc, processor.NewArchiveProcessor(), store, pub)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), api.RequestID())
	if cfg.RateLimitRPS > 0 {
		r.Use(api.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst).Middleware())
	}
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}
	api.NewServer(svc, store).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("starting api server at %s ...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down ...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	select {
	case <-s.Stop().Done():
	case <-ctx.Done():
		log.Println("archive job still running, giving up")
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}
}
