package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/api/router"
	"resume-parser-go/internal/bootstrap"
	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/ratelimit"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	initLogger(cfg.Logger)
	logger.Info().Str("store", cfg.Store.Driver).Str("pdf_backend", cfg.Parser.PDFBackend).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing, constants.Version)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	pipeline, err := bootstrap.NewPipeline(ctx, cfg, storageManager)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化解析流程失败")
	}

	resumeHandler := handler.NewResumeHandler(pipeline, cfg.MaxUploadBytes())
	h := router.NewServer(cfg)
	routeOpts := []router.RouteOption{router.WithAPIKeys(cfg.Server.APIKeys...)}
	if cfg.Server.UploadRatePerMinute > 0 {
		routeOpts = append(routeOpts, router.WithRateLimiter(
			ratelimit.NewTokenBucket(cfg.Server.UploadRatePerMinute, cfg.Server.UploadBurst)))
	}
	router.RegisterRoutes(h, resumeHandler, routeOpts...)
	logger.Info().
		Bool("api_key_auth", len(cfg.Server.APIKeys) > 0).
		Int("upload_rate_per_minute", cfg.Server.UploadRatePerMinute).
		Msg("HTTP路由注册成功")

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动中")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("关闭链路追踪失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// initLogger 初始化全局日志并将 Hertz 的 hlog 接到同一个 zerolog 实例
func initLogger(cfg config.LoggerConfig) {
	logger.Init(logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
	})

	hlog.SetLogger(hertzzerolog.From(logger.Logger))
	if cfg.Level == "debug" {
		hlog.SetLevel(hlog.LevelDebug)
	} else {
		hlog.SetLevel(hlog.LevelInfo)
	}
}
