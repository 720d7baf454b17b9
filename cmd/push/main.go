package main

import (
	"context"
	"log"

	"github.com/cwj/useful_push/internal/config"
	"github.com/cwj/useful_push/internal/digest"
	"github.com/cwj/useful_push/internal/push"
)

// 一次性推送入口：读取配置、跑完整条流水线后退出，适合 crontab 或手动触发。
// 不依赖数据库，新闻源来自 sources 文件或内置默认值。
func main() {
	cfg := config.Load()

	sources := config.LoadSources(cfg.NewsSourcesFile)

	builder := digest.NewBuilder(cfg, sources)
	payloads := builder.BuildPayloads(context.Background())
	if len(payloads) == 0 {
		log.Println("本轮没有可推送的内容")
		return
	}

	digest.SendAll(push.NewServerChan(cfg.ServerChanKey), payloads)
}
