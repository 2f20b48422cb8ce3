package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ankahee-backend/config"
	"ankahee-backend/internal/common"
	"ankahee-backend/internal/expiry"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/repository/mysql"
	"ankahee-backend/internal/service"
	"ankahee-backend/internal/util"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()
	cfg := config.AppConfig

	// 初始化日志
	util.InitLogger(cfg.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 连接数据库
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 数据库可能比应用启动得晚，连接测试允许重试
	pingCtx, cancelPing := context.WithTimeout(context.Background(), time.Minute)
	err = common.WithRetry(pingCtx, db.PingContext, 5, time.Second)
	cancelPing()
	if err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			util.Logger.Fatal("注册验证器失败", zap.Error(err))
		}
	}

	hub := realtime.NewHub(cfg.FeedBuffer)
	defer hub.Close()

	clock := expiry.Clock(time.Now)
	tokens := util.NewTokenIssuer(cfg.JWTSecret)

	var mailer service.Mailer
	if cfg.SMTPEnabled() {
		mailer = service.NewSMTPMailer(service.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
	}
	emailService := service.NewEmailService(mailer, cfg.JWTSecret, cfg.BackendURL+"/api")

	var generator service.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gemini, err := service.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			util.Logger.Warn("初始化 Gemini 客户端失败，情绪建议已关闭", zap.Error(err))
		} else {
			generator = gemini
		}
	}

	confessionRepo := mysql.NewConfessionRepository(db)
	roomRepo := mysql.NewRoomRepository(db)

	services := Services{
		Users:       service.NewUserService(mysql.NewUserRepository(db), emailService, tokens, hub),
		Confessions: service.NewConfessionService(confessionRepo, hub, clock),
		Pulse:       service.NewPulseService(confessionRepo, clock),
		Mood:        service.NewMoodService(generator),
		Rooms:       service.NewRoomService(roomRepo, hub, clock),
		Stories:     service.NewStoryService(mysql.NewStoryRepository(db), hub, clock),
		Letters:     service.NewLetterService(mysql.NewLetterRepository(db), hub, clock),
	}

	r := NewRouter(cfg, tokens, hub, services)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	// 先关闭变更流，websocket 连接随订阅一起结束
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Error("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}
