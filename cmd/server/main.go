package main

import (
	"log"

	"github.com/fullblog/internal/config"
	"github.com/fullblog/internal/db"
	"github.com/fullblog/internal/router"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 按需创建超级管理员
	created, err := db.EnsureAdminUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword)
	if err != nil {
		log.Fatalf("failed to ensure root user: %v", err)
	}
	if created {
		log.Printf("created admin user %s", cfg.SuperRootUserName)
	}

	// 设置并运行 Gin 服务器
	r := router.Setup(db.DB, cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
