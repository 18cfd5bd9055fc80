package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ledger/blob"
	"ledger/config"
	"ledger/database"
	"ledger/logging"
	"ledger/middleware"
	"ledger/router"
	"ledger/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// @title 个人账本 API
// @version 1.0
// @description 个人账本服务：消费记录、按日/周/月/年统计、预算、储蓄和数据导出
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

// newUploader 按配置选择图片存储，返回本地目录用于挂载 /uploads
func newUploader(ctx context.Context, cfg *config.BlobConfig) (blob.Uploader, string, error) {
	switch cfg.Driver {
	case "", "local":
		store, err := blob.NewLocalStore(cfg.LocalDir, cfg.PublicURL)
		if err != nil {
			return nil, "", err
		}
		return store, store.Dir(), nil
	case "gcs":
		store, err := blob.NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}
	return nil, "", fmt.Errorf("不支持的图片存储: %s", cfg.Driver)
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println("个人账本 v1.0.0")
		return
	}

	// .env 可选，用于本地开发时注入 LEDGER_* 环境变量
	if err := godotenv.Load(); err == nil {
		slog.Info("已加载 .env")
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fatal("加载配置失败", err)
	}
	logging.Setup(cfg.Server.Mode, cfg.Log.Level)

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		slog.Info("命令行指定端口", "port", port)
	}

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		fatal("数据库初始化失败", err)
	}
	middleware.InitJWT(cfg)

	loc, err := cfg.Location()
	if err != nil {
		fatal("加载时区失败", err)
	}
	uploader, uploadDir, err := newUploader(context.Background(), &cfg.Blob)
	if err != nil {
		fatal("初始化图片存储失败", err)
	}

	store := database.NewStore(database.GetDB())
	opts := []service.Option{service.WithLocation(loc)}
	var authOpts []service.AuthOption
	if cfg.Email.Enabled {
		mailer := service.NewEmailService(cfg, store)
		opts = append(opts, service.WithNotifier(mailer))
		authOpts = append(authOpts, service.WithResetMailer(mailer))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := router.SetupRouter(cfg, router.Deps{
		Ledger:    service.NewLedger(store, uploader, opts...),
		Auth:      service.NewAuthService(store, uploader, authOpts...),
		Registry:  reg,
		UploadDir: uploadDir,
	})

	slog.Info("个人账本已启动",
		"swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port),
		"api", fmt.Sprintf("http://localhost%s/api/v1/", cfg.Server.Port),
	)
	if err := r.Run(cfg.Server.Port); err != nil {
		fatal("服务器启动失败", err)
	}
}
