// @title Lerntrainer 后端 API
// @version 1.0
// @description 德语学习训练器的进度与游戏化后端服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"path/filepath"

	"lerntrainer_backend/internal/app"
	"lerntrainer_backend/internal/config"
	"lerntrainer_backend/pkg/configwatcher"
	"lerntrainer_backend/pkg/logger"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	watch := flag.Bool("watch-config", false, "监听配置文件变更并热更游戏化参数")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *watch {
		go configwatcher.WatchConfig(filepath.Join(*configDir, "config.yaml"), application.ApplyConfig)
	}

	application.Run()
}
