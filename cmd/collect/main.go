package main

import (
	"context"
	"log"

	"github.com/LJTian/DistrictNews/internal/bootstrap"
	"github.com/LJTian/DistrictNews/internal/config"
	"github.com/LJTian/DistrictNews/internal/processor"
	"github.com/LJTian/DistrictNews/internal/publisher"
	"github.com/LJTian/DistrictNews/internal/scheduler"
	"github.com/LJTian/DistrictNews/internal/storage"
)

// 一个仅执行一轮归档任务的命令行入口：适合手动触发
func main() {
	cfg := config.Load()
	ctx := context.Background()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	mongoClient, err := storage.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("init mongo failed: %v", err)
	}
	defer func() { _ = mongoClient.Disconnect(ctx) }()
	community := storage.NewCommunityStore(mongoClient.Database(cfg.MongoDatabase), store.Redis)

	svc := bootstrap.NewFeedService(cfg, community, false)

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

	// 只执行一轮归档任务后退出
	s.RunOnce(ctx)
}
