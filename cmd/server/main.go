// Package main initializes and starts the listing platform API server,
// setting up configuration, logging, the database, image storage, Redis
// backed helpers, services, handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/realtyhub/realtyhub/internal/auth"
	"github.com/realtyhub/realtyhub/internal/chat"
	"github.com/realtyhub/realtyhub/internal/config"
	"github.com/realtyhub/realtyhub/internal/db"
	"github.com/realtyhub/realtyhub/internal/logger"
	"github.com/realtyhub/realtyhub/internal/middleware"
	"github.com/realtyhub/realtyhub/internal/ratelimit"
	"github.com/realtyhub/realtyhub/internal/repository"
	"github.com/realtyhub/realtyhub/internal/server/handler/http"
	"github.com/realtyhub/realtyhub/internal/service"
	"github.com/realtyhub/realtyhub/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const uploadsPath = "/uploads"

func main() {
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// A missing signing secret stops the process here, not per request.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	images, uploads, err := openImageStore(options)
	if err != nil {
		zapLogger.Fatal("cannot init image store", zap.Error(err))
	}

	db.StartFileTombstoneCleaner(ctx, postgresDB, images, options.TombstoneInterval, zapLogger)

	var (
		redisClient *redis.Client
		relay       service.Relay = chat.NopRelay{}
		limiter     middleware.Limiter
		sessionOpts []auth.Option
	)
	if options.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: options.RedisAddr, Password: options.RedisPassword})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zapLogger.Fatal("cannot reach redis", zap.Error(err))
		}
		relay = chat.NewRedisRelay(redisClient, "")
		if options.LoginRateLimit > 0 {
			l, err := ratelimit.NewFixedWindowLimiter(redisClient, "realtyhub:login", options.LoginRateLimit, time.Minute)
			if err != nil {
				zapLogger.Fatal("cannot init rate limiter", zap.Error(err))
			}
			limiter = l
		}
		if options.SessionRevocation {
			sessionOpts = append(sessionOpts, auth.WithRevoker(auth.NewRedisRevoker(redisClient, "")))
		}
	}
	trustedProxies, err := middleware.NewTrustedProxies(options.TrustedProxies)
	if err != nil {
		zapLogger.Fatal("invalid trusted proxies", zap.Error(err))
	}
	sessions := auth.NewSessionManager(options.JWTSecret, options.SessionTTL, sessionOpts...)

	accountRepo := repository.NewPostgresAccountRepository(postgresDB)
	listingRepo := repository.NewPostgresListingRepository(postgresDB)
	bookmarkRepo := repository.NewPostgresBookmarkRepository(postgresDB)
	inquiryRepo := repository.NewPostgresInquiryRepository(postgresDB)
	chatRepo := repository.NewPostgresChatRepository(postgresDB)
	tombstoneRepo := repository.NewPostgresTombstoneRepository(postgresDB)

	authService := service.NewAuthService(accountRepo, sessions, zapLogger)
	accountService := service.NewAccountService(accountRepo, images, tombstoneRepo, zapLogger)
	listingService := service.NewListingService(listingRepo, images, tombstoneRepo, zapLogger)
	bookmarkService := service.NewBookmarkService(bookmarkRepo, listingRepo)
	inquiryService := service.NewInquiryService(inquiryRepo, listingRepo)
	chatService := service.NewChatService(chatRepo, relay, zapLogger)

	router := http.NewRouter(http.RouterConfig{
		Auth: &http.AuthHandler{
			AuthService:  authService,
			Log:          zapLogger,
			SessionTTL:   sessions.TTL(),
			CookieSecure: options.CookieSecure || options.TLSEnabled(),
		},
		Listings:       &http.ListingHandler{Listings: listingService, Log: zapLogger},
		Accounts:       &http.AccountHandler{Accounts: accountService, Log: zapLogger},
		Bookmarks:      &http.BookmarkHandler{Bookmarks: bookmarkService, Log: zapLogger},
		Inquiries:      &http.InquiryHandler{Inquiries: inquiryService, Log: zapLogger},
		Chat:           &http.ChatHandler{Chats: chatService, Log: zapLogger},
		Sessions:       sessions,
		Metrics:        middleware.NewMetrics(prometheus.DefaultRegisterer),
		LoginLimiter:   limiter,
		TrustedProxies: trustedProxies,
		Uploads:        uploads,
		CORSOrigin:     options.CORSOrigin,
		Logger:         zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSEnabled() {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

// openImageStore returns the configured image store and, for the disk
// backend, the handler serving its files.
func openImageStore(o *config.Options) (storage.ImageStore, nethttp.Handler, error) {
	switch o.StorageBackend {
	case config.StorageMinio:
		m := o.Minio
		s, err := storage.NewMinioStore(m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.PublicURL, m.UseSSL)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		s, err := storage.NewDiskStore(o.UploadDir, uploadsPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Handler(), nil
	}
}
