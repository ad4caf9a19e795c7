package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/agoraforum/agora/internal/cache"
	"github.com/agoraforum/agora/internal/captcha"
	"github.com/agoraforum/agora/internal/config"
	"github.com/agoraforum/agora/internal/filestore"
	"github.com/agoraforum/agora/internal/handler"
	"github.com/agoraforum/agora/internal/job"
	"github.com/agoraforum/agora/internal/middleware"
	"github.com/agoraforum/agora/internal/repo"
	"github.com/agoraforum/agora/internal/schedule"
	"github.com/agoraforum/agora/internal/service"
	"github.com/agoraforum/agora/internal/session"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "agora",
		Short: "agora community server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run agora server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache store: %w", err)
	}
	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	userRepo := repo.NewUserRepo(db)
	userCache := cache.NewUserCache(store, userRepo)
	tickets := session.NewTicketManager(store)

	mailSender := service.NewEmailSender(cfg.Mail)
	mailRenderer, err := service.NewMailRenderer()
	if err != nil {
		return fmt.Errorf("init mail renderer: %w", err)
	}
	userService := service.NewUserService(userRepo, userCache, tickets, mailSender, mailRenderer, cfg.Domain, cfg.ContextPath)

	deps := handler.RouterDeps{
		Auth:       handler.NewAuthHandler(userService, store, cfg.ContextPath),
		Captcha:    handler.NewCaptchaHandler(captcha.NewProducer(), store, cfg.ContextPath),
		Users:      handler.NewUserHandler(userService, files, cfg.Domain),
		Files:      handler.NewFileHandler(files),
		TicketAuth: middleware.TicketAuth(tickets, userCache),
	}

	prefix := cfg.ContextPath
	if prefix == "" {
		prefix = "/"
	}
	engine, err := webapi.NewEngine(
		prefix,
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if memStore, ok := store.(*cache.MemoryStore); ok {
		sched := schedule.NewCronScheduler()
		if err := sched.AddJob(job.NewCachePurgeJob(memStore), "*/10 * * * *"); err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
