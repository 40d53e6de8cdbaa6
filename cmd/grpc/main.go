package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-uniform-service/config"
	"github.com/fekuna/omnipos-uniform-service/internal/auth"
	"github.com/fekuna/omnipos-uniform-service/internal/store"
	"github.com/fekuna/omnipos-uniform-service/internal/store/memory"
	"github.com/fekuna/omnipos-uniform-service/internal/store/sqlstore"
	"github.com/fekuna/omnipos-uniform-service/pkg/broker"
	"github.com/fekuna/omnipos-uniform-service/pkg/cache"
	"github.com/fekuna/omnipos-uniform-service/pkg/database"
	"github.com/fekuna/omnipos-uniform-service/pkg/logger"
	"github.com/fekuna/omnipos-uniform-service/pkg/search"

	batchEvent "github.com/fekuna/omnipos-uniform-service/internal/batch/event"
	batchH "github.com/fekuna/omnipos-uniform-service/internal/batch/handler"
	batchRepoPkg "github.com/fekuna/omnipos-uniform-service/internal/batch/repository"
	batchUCPkg "github.com/fekuna/omnipos-uniform-service/internal/batch/usecase"

	"github.com/fekuna/omnipos-uniform-service/internal/product"
	prodH "github.com/fekuna/omnipos-uniform-service/internal/product/handler"
	prodListenerPkg "github.com/fekuna/omnipos-uniform-service/internal/product/listener"
	prodRepoPkg "github.com/fekuna/omnipos-uniform-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-uniform-service/internal/product/usecase"

	schoolH "github.com/fekuna/omnipos-uniform-service/internal/school/handler"
	schoolRepoPkg "github.com/fekuna/omnipos-uniform-service/internal/school/repository"
	schoolUCPkg "github.com/fekuna/omnipos-uniform-service/internal/school/usecase"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Open the document store
	docStore, db := openStore(ctx, cfg, appLogger)
	if db != nil {
		defer db.Close()
	}

	// 4. Initialize Repositories
	batchRepo := batchRepoPkg.NewDocumentRepository(docStore, appLogger)
	prodRepo := prodRepoPkg.NewDocumentRepository(docStore, appLogger)
	schoolRepo := schoolRepoPkg.NewDocumentRepository(docStore, appLogger)

	// 5. Initialize Redis
	var batchOpts []batchUCPkg.Option
	var listCache product.ListCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

		batchOpts = append(batchOpts, batchUCPkg.WithLocker(redisClient, batchUCPkg.LockConfig{
			TTL:        cfg.Allocation.LockTTL,
			Retries:    cfg.Allocation.LockRetries,
			RetryDelay: 100 * time.Millisecond,
		}))
		listCache = redisClient
	}

	// 5.5 Initialize Kafka
	var requestConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		stockProducer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.StockEventTopic,
		})
		defer stockProducer.Close()
		batchOpts = append(batchOpts, batchUCPkg.WithPublisher(batchEvent.NewStockPublisher(stockProducer)))

		requestConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ProductRequestTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer requestConsumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("requests_topic", cfg.Kafka.ProductRequestTopic),
			zap.String("events_topic", cfg.Kafka.StockEventTopic),
		)
	}

	// 5.8 Initialize Elasticsearch
	var indexer product.Indexer
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to the store", zap.Error(err))
		} else {
			indexer = esClient
			if err := prodUCPkg.EnsureIndex(ctx, indexer); err != nil {
				appLogger.Warn("Could not create product index", zap.Error(err))
			}
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Initialize UseCases
	batchUC := batchUCPkg.NewBatchUseCase(batchRepo, appLogger, batchOpts...)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, batchUC, listCache, indexer, appLogger)
	schoolUC := schoolUCPkg.NewSchoolUseCase(schoolRepo, prodUC, appLogger)

	// 6.5 Initialize Listeners
	if requestConsumer != nil {
		prodListener := prodListenerPkg.NewProductListener(requestConsumer, prodUC, appLogger)
		go prodListener.Start(ctx)
	}

	// 7. Initialize Handlers
	batchHandler := batchH.NewBatchHandler(batchUC, appLogger)
	prodHandler := prodH.NewProductHandler(prodUC, appLogger)
	schoolHandler := schoolH.NewSchoolHandler(schoolUC, appLogger)

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.ContextInterceptor()),
	)

	// Register Services
	grpcServer.RegisterService(batchHandler.ServiceDesc(), batchHandler)
	grpcServer.RegisterService(prodHandler.ServiceDesc(), prodHandler)
	grpcServer.RegisterService(schoolHandler.ServiceDesc(), schoolHandler)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port), zap.String("store", cfg.Store.Driver))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

// openStore returns the configured document store. db is non-nil for the SQL
// backed drivers so the caller can close it.
func openStore(ctx context.Context, cfg *config.Config, appLogger logger.ZapLogger) (store.Store, *sqlx.DB) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.NewPostgres(&database.PostgresConfig{
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
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
		return migrated(ctx, db, appLogger), db

	case "sqlite":
		db, err := database.NewSQLite(cfg.Store.DSN)
		if err != nil {
			appLogger.Fatal("Could not open sqlite database", zap.Error(err))
		}
		appLogger.Info("Opened sqlite database", zap.String("path", cfg.Store.DSN))
		return migrated(ctx, db, appLogger), db

	case "memory", "":
		var opts []memory.Option
		if cfg.Store.SnapshotPath != "" {
			opts = append(opts, memory.WithSnapshot(cfg.Store.SnapshotPath))
		}
		s, err := memory.New(opts...)
		if err != nil {
			appLogger.Fatal("Could not load memory store snapshot", zap.Error(err))
		}
		appLogger.Info("Using in-memory store", zap.String("snapshot", cfg.Store.SnapshotPath))
		return s, nil

	default:
		appLogger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
		return nil, nil
	}
}

func migrated(ctx context.Context, db *sqlx.DB, appLogger logger.ZapLogger) store.Store {
	s := sqlstore.New(db)
	if err := s.Migrate(ctx); err != nil {
		appLogger.Fatal("Could not migrate documents table", zap.Error(err))
	}
	return s
}
