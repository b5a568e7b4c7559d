package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"trustline/backend/internal/api/handler"
	"trustline/backend/internal/bot"
	"trustline/backend/internal/chathub"
	"trustline/backend/internal/config"
	"trustline/backend/internal/localization"
	"trustline/backend/internal/messenger"
	"trustline/backend/internal/session"
	"trustline/backend/internal/storage"
	"trustline/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Bad REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)

	// Перевірка з'єднання Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	log.Println("Database and Redis connections established.")
	return db, rdb
}

func main() {
	log.Println("Starting TrustLine Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Сховища та довідкові дані
	db, rdb := setupDependencies(cfg)
	store := storage.NewStorageService(db, rdb)
	if err := store.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	catalog, err := config.LoadCatalog(cfg)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	if err := store.SyncCatalog(ctx, catalog); err != nil {
		log.Fatalf("Failed to sync catalog: %v", err)
	}

	loc, err := localization.NewLocalizer(cfg.DefaultLanguage)
	if err != nil {
		log.Fatalf("Failed to create localizer: %v", err)
	}

	// 2. Транспорти
	botAPI, err := telegram.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to start Telegram bot: %v", err)
	}
	tgSender := telegram.NewSender(botAPI, loc.GetString(cfg.DefaultLanguage, "bridged_header"))
	router := messenger.NewRouter(tgSender).Handle(telegram.ChannelPrefix, tgSender)

	// 3. Диспетчер і контролер діалогу
	ctrl := bot.NewController(bot.Deps{
		Cases:     store,
		Reviewers: store,
		Catalog:   store,
		Sessions:  session.NewRedisStore(rdb, cfg.SessionTTL),
		Messenger: router,
		Localizer: loc,
		FanOut:    cfg.Workers,
	})
	dispatcher := bot.NewDispatcher(ctrl, session.NewLocker(rdb, config.UserLockTTL, config.UserLockWait), cfg.Workers, cfg.Workers*16)

	var hub *chathub.ManagerService
	if cfg.WebChannelEnabled {
		hub = chathub.NewManagerService(dispatcher, store)
		router.Handle(chathub.ChannelPrefix, hub)
	}
	botService := telegram.NewBotService(botAPI, dispatcher)

	// 4. Планувальник очищення прострочених кодів доступу
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.AccessCodeSweepSpec, func() {
		n, err := store.PurgeExpiredCodes(context.Background())
		if err != nil {
			log.Printf("ERROR: purge expired access codes: %v", err)
			return
		}
		if n > 0 {
			log.Printf("INFO: purged %d expired access codes", n)
		}
	}); err != nil {
		log.Fatalf("Bad ACCESS_CODE_SWEEP: %v", err)
	}

	// 5. HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	opts := handler.Options{
		Hub:           hub,
		Health:        store,
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTTTL,
		WebhookSecret: cfg.TelegramWebhookSecret,
	}
	if cfg.UsesWebhook() {
		opts.Telegram = botService
	}
	handler.NewHandler(opts).Register(r)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(gctx) })
	if hub != nil {
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
	}
	if cfg.UsesWebhook() {
		if err := botService.SetWebhook(cfg.TelegramWebhookURL, cfg.TelegramWebhookSecret); err != nil {
			log.Fatalf("Failed to register webhook: %v", err)
		}
	} else {
		g.Go(func() error { return botService.Run(gctx) })
	}
	g.Go(func() error {
		log.Printf("INFO: HTTP server listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	sweeper.Start()
	err = g.Wait()
	<-sweeper.Stop().Done()
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		sqlDB.Close()
	}
	rdb.Close()
	if err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("TrustLine Backend stopped.")
}
