package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"hunter/internal/config"
	"hunter/internal/db"
	"hunter/internal/email"
	apihttp "hunter/internal/http"
	"hunter/internal/metrics"
	"hunter/internal/repository"
	"hunter/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	entryRepo := repository.NewPgEntryRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		authLimiter  service.AuthRateLimiter
		refreshStore service.RefreshTokenStore
		denylist     service.AccessDenylist
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			authLimiter = service.NewRedisAuthRateLimiter(redisClient, 15*time.Minute, 5)
			refreshStore = service.NewRedisRefreshTokenStore(redisClient)
			denylist = service.NewRedisAccessDenylist(redisClient)
		}
		cancel()
	}

	tokenSvc := service.NewTokenServiceWithStores(
		cfg.JWTSecret,
		time.Duration(cfg.AccessTTLSeconds)*time.Second,
		time.Duration(cfg.RefreshTTLMinutes)*time.Minute,
		refreshStore,
		denylist,
	)
	identitySvc := service.NewIdentityService(logger, userRepo, emailSender, authLimiter)
	entrySvc := service.NewEntryService(logger, entryRepo)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("aws config", zap.Error(err))
	}
	presignClient := s3.NewPresignClient(s3.NewFromConfig(awsCfg))
	uploadSvc := service.NewUploadService(logger, presignClient, cfg.UploadBucket)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	authLimit := apihttp.NewIPRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	defer authLimit.Stop()

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Logger:    logger,
		Auth:      apihttp.NewAuthHandler(logger, identitySvc, tokenSvc),
		Entries:   apihttp.NewEntryHandler(logger, entrySvc),
		Uploads:   apihttp.NewUploadHandler(logger, uploadSvc),
		Tokens:    tokenSvc,
		Collector: collector,
		Registry:  registry,
		AuthLimit: authLimit,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
