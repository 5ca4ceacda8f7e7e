package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/fekuna/omnipos-retail-service/api/posv1"
	"github.com/fekuna/omnipos-retail-service/config"
	"github.com/fekuna/omnipos-retail-service/internal/asset"
	"github.com/fekuna/omnipos-retail-service/internal/auth"
	"github.com/fekuna/omnipos-retail-service/internal/httpapi"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/database/postgres"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/search"
	"github.com/fekuna/omnipos-retail-service/internal/product"
	"github.com/fekuna/omnipos-retail-service/internal/sale"

	prodH "github.com/fekuna/omnipos-retail-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-retail-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-retail-service/internal/product/usecase"

	saleH "github.com/fekuna/omnipos-retail-service/internal/sale/handler"
	saleListenerPkg "github.com/fekuna/omnipos-retail-service/internal/sale/listener"
	saleRepoPkg "github.com/fekuna/omnipos-retail-service/internal/sale/repository"
	saleUCPkg "github.com/fekuna/omnipos-retail-service/internal/sale/usecase"

	userRepoPkg "github.com/fekuna/omnipos-retail-service/internal/user/repository"
	userUCPkg "github.com/fekuna/omnipos-retail-service/internal/user/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}

	translator, err := i18n.New()
	if err != nil {
		appLogger.Fatal("Could not load locales", zap.Error(err))
	}

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	if err := postgres.Migrate(context.Background(), db); err != nil {
		appLogger.Fatal("Could not apply schema", zap.Error(err))
	}
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	saleRepo := saleRepoPkg.NewPGRepository(db)
	userRepo := userRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	var (
		redisClient *cache.RedisClient
		listCache   product.Cache
		idem        sale.IdempotencyStore
		invalidator sale.CacheInvalidator
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		listCache, idem, invalidator = redisClient, redisClient, redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		appLogger.Warn("REDIS_ADDR empty: product list cache and sale request ids disabled")
	}

	// 6. Initialize Elasticsearch
	var indexer product.Indexer
	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, name search falls back to the database", zap.Error(err))
		} else {
			indexer = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Asset store
	assets, err := asset.NewLocalStore(cfg.Upload.Dir, cfg.Upload.MaxBytes, appLogger)
	if err != nil {
		appLogger.Fatal("Could not prepare upload directory", zap.Error(err))
	}

	// 8. Initialize UseCases
	tokens := auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWTTTL())
	policy := auth.NewPolicy(cfg.Policy.SaleRoles, cfg.Policy.CatalogRoles)

	prodUC := prodUCPkg.NewProductUseCase(prodRepo, listCache, indexer, assets, appLogger)
	saleUC := saleUCPkg.NewSaleUseCase(saleRepo, idem, invalidator, appLogger, saleUCPkg.Options{
		Timeout:    cfg.SaleTimeout(),
		MaxRetries: cfg.Sale.MaxRetries,
	})
	userUC := userUCPkg.NewUserUseCase(userRepo, tokens, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	// 9. Initialize Kafka Listener
	var kafkaConsumer *broker.KafkaConsumer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		orderListener := saleListenerPkg.NewOrderListener(kafkaConsumer, saleUC, appLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			orderListener.Start(ctx)
		}()
		appLogger.Info("Kafka order listener started", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 10. Start gRPC Server
	grpcServer := grpc.NewServer(
		posv1.ServerOption(),
		grpc.UnaryInterceptor(auth.UnaryServerInterceptor(tokens)),
	)
	posv1.RegisterSaleServiceServer(grpcServer, saleH.NewSaleHandler(saleUC, policy, appLogger))
	posv1.RegisterProductServiceServer(grpcServer, prodH.NewProductHandler(prodUC, policy, appLogger))

	grpcLis, err := net.Listen("tcp", normalizePort(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen for gRPC", zap.Error(err))
	}
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(grpcLis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()

	// 11. Start HTTP Server
	httpServer := &http.Server{
		Addr: normalizePort(cfg.Server.HTTPPort),
		Handler: httpapi.NewRouter(&httpapi.App{
			Products:   prodUC,
			Sales:      saleUC,
			Users:      userUC,
			Tokens:     tokens,
			Policy:     policy,
			Assets:     assets,
			Translator: translator,
			Logger:     appLogger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	err = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	cancel()
	wg.Wait()

	if kafkaConsumer != nil {
		err = multierr.Append(err, kafkaConsumer.Close())
	}
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	err = multierr.Append(err, db.Close())
	if err != nil {
		appLogger.Error("Shutdown finished with errors", zap.Error(err))
		return
	}
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
