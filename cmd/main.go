package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyerfyer/pdf-embed-service/api"
	"github.com/fyerfyer/pdf-embed-service/api/handler"
	"github.com/fyerfyer/pdf-embed-service/api/middleware"
	appconfig "github.com/fyerfyer/pdf-embed-service/config"
	"github.com/fyerfyer/pdf-embed-service/internal/cache"
	"github.com/fyerfyer/pdf-embed-service/internal/document"
	"github.com/fyerfyer/pdf-embed-service/internal/embedding"
	"github.com/fyerfyer/pdf-embed-service/internal/pdf"
	"github.com/fyerfyer/pdf-embed-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// 加载.env文件(如果存在)
	_ = godotenv.Load()

	// 解析命令行参数
	configFile := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Server port (overrides config)")
	mode := flag.String("mode", "", "Run mode (debug/release, overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug/info/warn/error, overrides config)")
	flag.Parse()

	// 加载配置文件
	cfg, err := appconfig.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 命令行参数优先于配置文件
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *mode != "" {
		cfg.Server.Mode = *mode
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// API密钥环境变量优先于配置文件
	if key := os.Getenv("EMBEDDING_API_KEY"); key != "" {
		cfg.Embed.APIKey = key
	}

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 初始化日志
	logger := setupLogger(cfg)
	logger.Info("Starting PDF embedding service...")

	// 创建上传状态缓存
	statusCache, err := setupCache(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize status cache: %v", err)
	}
	statusTracker := services.NewStatusTracker(statusCache, logger)

	// 创建远程下载器
	fetcher := pdf.NewFetcher(pdf.FetcherConfig{
		Timeout:      cfg.Fetcher.Timeout,
		MaxRedirects: cfg.Fetcher.MaxRedirects,
		MaxSize:      cfg.Fetcher.MaxSize,
	}, logger)

	// 创建文本提取器
	extractor := pdf.NewExtractor(logger)

	// 创建文本分段器
	splitter := document.NewTextSplitter(document.SplitterConfig{
		ChunkSize:    cfg.Document.ChunkSize,
		ChunkOverlap: cfg.Document.ChunkOverlap,
	})

	// 创建嵌入客户端
	embeddingClient, err := setupEmbedding(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize embedding client: %v", err)
	}
	logger.Infof("Using embedding model: %s", embeddingClient.Name())

	// 初始化上传处理管线
	pipeline := services.NewPipelineService(
		fetcher,
		extractor,
		splitter,
		embeddingClient,
		services.WithLogger(logger),
		services.WithStatusTracker(statusTracker),
	)

	// 初始化API处理器
	uploadHandler := handler.NewUploadHandler(pipeline, statusTracker)
	healthHandler := handler.NewHealthHandler()

	// 设置路由
	r := api.SetupRouter(uploadHandler, healthHandler)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Server is running on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// 优雅关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger 设置日志系统
func setupLogger(cfg *appconfig.Config) *logrus.Logger {
	logger := middleware.GetLogger()

	switch cfg.Log.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Log.File != "" {
		middleware.SetLogFile(cfg.Log.File)
	}

	return logger
}

// setupCache 设置上传状态缓存
func setupCache(cfg *appconfig.Config) (cache.Cache, error) {
	cacheConfig := cache.Config{
		Type:       cfg.Cache.Type,
		DefaultTTL: time.Duration(cfg.Cache.TTL) * time.Second,
	}

	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}

	return cache.NewCache(cacheConfig)
}

// setupEmbedding 设置嵌入模型客户端
func setupEmbedding(cfg *appconfig.Config) (embedding.Client, error) {
	if cfg.Embed.APIKey == "" || cfg.Embed.APIKey == "${GEMINI_API_KEY}" {
		return nil, fmt.Errorf("embedding API key is required")
	}

	return embedding.NewClient(cfg.Embed.Provider,
		embedding.WithAPIKey(cfg.Embed.APIKey),
		embedding.WithModel(cfg.Embed.Model),
		embedding.WithBaseURL(cfg.Embed.Endpoint),
		embedding.WithBatchSize(cfg.Embed.BatchSize),
		embedding.WithDimensions(cfg.Embed.Dimensions),
	)
}
