package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cwj/useful_push/internal/api"
	"github.com/cwj/useful_push/internal/config"
	"github.com/cwj/useful_push/internal/digest"
	"github.com/cwj/useful_push/internal/push"
	"github.com/cwj/useful_push/internal/scheduler"
	"github.com/cwj/useful_push/internal/storage"
)

// daemon 入口：定时执行推送流水线，同时提供管理与预览 API。
// 新闻源和关注城市从数据库读取，最近一轮结果缓存在 Redis。
func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	if err := store.SeedDefaultSources(); err != nil {
		log.Fatalf("seed default sources failed: %v", err)
	}
	if err := store.SeedDefaultWeatherCities(); err != nil {
		log.Printf("warn: seed default weather cities: %v", err)
	}

	job := func() { runDigest(cfg, store) }

	s, err := scheduler.New(cfg.CronSpec, job)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	// 启动后稍等再跑首轮，让 API 先就绪
	s.StartWithInitialRun(10 * time.Second)
	defer s.Stop()

	r := gin.Default()
	apiServer := api.NewServer(store, job)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

// runDigest 执行一轮完整推送，并把结果落到 Redis 与运行状态表
func runDigest(cfg *config.Config, store *storage.Store) {
	sources, err := store.GroupedSources()
	if err != nil {
		log.Printf("读取新闻源失败：%v", err)
		sources = config.GroupSources(config.DefaultNewsSources)
	}

	locations, err := store.ListWeatherLocations()
	if err != nil {
		log.Printf("warn: 读取关注城市失败：%v", err)
	}

	builder := digest.NewBuilder(cfg, sources).WithWeather(locations, store)
	payloads := builder.BuildPayloads(context.Background())

	if err := store.CacheLatestDigest(payloads); err != nil {
		log.Printf("warn: 缓存最新推送失败：%v", err)
	}

	sections := make(map[string]any, len(payloads))
	for _, payload := range payloads {
		sections[payload.Title] = len(payload.Body)
	}

	lastError := ""
	if cfg.ServerChanKey == "" {
		lastError = push.ErrNoKey.Error()
		log.Println("SERVERCHAN_KEY 未配置，本轮只构建不推送")
	} else {
		digest.SendAll(push.NewServerChan(cfg.ServerChanKey), payloads)
	}

	if err := store.SaveRunStatus(config.Now(), sections, lastError); err != nil {
		log.Printf("warn: 保存运行状态失败：%v", err)
	}
}
