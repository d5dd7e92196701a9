package main

import (
	"context"
	"errors"
	"factory-server/config"
	_ "factory-server/docs"
	"factory-server/internal/email"
	"factory-server/internal/handler"
	"factory-server/internal/metrics"
	"factory-server/internal/middleware"
	"factory-server/internal/ports"
	"factory-server/internal/repository"
	"factory-server/internal/security"
	"factory-server/internal/service"
	"factory-server/internal/util"
	"factory-server/migrations"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Factory-server
// @version 1.0
// @description Аутентификация и сессии заводского портала: cookie с JWT, тихое обновление, отзыв токенов

// @host localhost:8080

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name access_token
func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	dev := flag.Bool("dev", false, "встроенный PostgreSQL и применение миграций")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := util.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Ошибка создания логгера: %v", err)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, *dev, logger); err != nil {
		logger.Fatal("сервер завершился с ошибкой", zap.Error(err))
	}
}

// run : сборка зависимостей и работа сервера. Отложенные остановки выполняются при любом исходе
func run(ctx context.Context, cfg *config.AppConfig, dev bool, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if dev {
		pg, err := config.StartEmbeddedPostgres(&cfg.DatabaseConfig)
		if err != nil {
			return fmt.Errorf("не удалось запустить встроенный PostgreSQL: %w", err)
		}
		defer func() {
			if err := pg.Stop(); err != nil {
				logger.Warn("ошибка остановки встроенного PostgreSQL", zap.Error(err))
			}
		}()
	}

	db, err := config.SetupDatabase(ctx, &cfg.DatabaseConfig)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к БД: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("ошибка при закрытии БД", zap.Error(err))
		}
	}()

	if dev {
		if err := migrations.Apply(ctx, db.DB); err != nil {
			return fmt.Errorf("не удалось применить миграции: %w", err)
		}
	}

	var (
		redisClient     *config.RedisClient
		revocationCache ports.RevocationCache
	)
	if cfg.RedisConfig.Addr != "" {
		redisClient, err = config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			return fmt.Errorf("ошибка подключения к Redis: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("ошибка при закрытии Redis", zap.Error(err))
			}
		}()
		revocationCache = repository.NewRevocationCacheRepository(redisClient)
	} else {
		logger.Info("Redis не настроен, проверка отзыва идет только через БД, восстановление пароля отключено")
	}

	clock := clockwork.NewRealClock()

	var archiver ports.SessionArchiver
	if cfg.S3Config.Enabled {
		s3Service, err := service.NewS3Service(ctx, &cfg.S3Config, clock)
		if err != nil {
			return fmt.Errorf("ошибка создания S3 сервиса: %w", err)
		}
		archiver = s3Service
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	transactor := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	revokedRepo := repository.NewRevokedTokenRepository(db)

	jwtService := security.NewJWTService(&cfg.JWT, clock)
	hasher := security.NewBcryptHasher(cfg.Password.BcryptCost)
	cookies := security.NewCookieManager(&cfg.Cookies, &cfg.JWT)

	ledger := service.NewRevocationService(revokedRepo, revocationCache, jwtService, clock, logger)
	sessionService := service.NewSessionService(sessionRepo, ledger, cfg.Session, clock, recorder, logger)
	authService := service.NewAuthenticationService(transactor, userRepo, sessionService, ledger, jwtService, hasher, cfg.Lockout, clock, recorder, logger)
	resolverService := service.NewResolverService(transactor, userRepo, sessionService, ledger, jwtService, cfg.Session, clock, recorder, logger)
	userService := service.NewUserService(transactor, userRepo, hasher, logger)
	cleanupService := service.NewCleanupService(transactor, sessionService, sessionRepo, ledger, archiver, cfg.Cleanup, clock, recorder, logger)

	var recoveryHandler *handler.RecoveryHandler
	if redisClient != nil {
		codes := repository.NewRecoveryCodeRepository(redisClient)
		mailer := email.NewSender(&cfg.Recovery.SMTP)
		recoveryService := service.NewRecoveryService(transactor, userRepo, sessionService, codes, mailer, hasher, cfg.Recovery, logger)
		recoveryHandler = handler.NewRecoveryHandler(recoveryService, logger)
	}

	authenticator := middleware.NewAuthenticator(resolverService, cookies, logger)
	authHandler := handler.NewAuthenticationHandler(authService, cookies, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	adminHandler := handler.NewAdminHandler(authService, logger)
	healthHandler := handler.NewHealthHandler(db, logger)

	srv, router := config.SetupServer(cfg.ServerAddr)

	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Method(http.MethodGet, "/metrics", metrics.Handler(registry))
	router.Get("/healthz", healthHandler.Health)
	handler.MountAPI(router, authenticator, authHandler, userHandler, adminHandler, recoveryHandler)

	var wg sync.WaitGroup
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanupService.Run(cleanupCtx)
	}()

	serveErr := runServer(ctx, srv, logger)

	stopCleanup()
	wg.Wait()
	logger.Info("фоновая очистка остановлена")
	return serveErr
}

// listRoutes : печать маршрутов при старте в режиме отладки
func listRoutes(router chi.Routes, logger *zap.Logger) {
	_ = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logger.Debug("маршрут", zap.String("method", method), zap.String("route", route))
		return nil
	})
}

func runServer(ctx context.Context, server *http.Server, logger *zap.Logger) error {
	if router, ok := server.Handler.(chi.Routes); ok {
		listRoutes(router, logger)
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("сервер запущен", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка работы сервера: %w", err)
		}
		return nil
	case sig := <-signalChannel:
		logger.Info("получен сигнал остановки работы сервера", zap.String("signal", sig.String()))
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		return fmt.Errorf("ошибка при остановке сервера: %w", err)
	}
	logger.Info("сервер успешно остановлен")
	return nil
}
