package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/marketplace/internal/adapter/handler"
	"github.com/rl1809/marketplace/internal/adapter/identity"
	"github.com/rl1809/marketplace/internal/adapter/notify"
	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/config"
	"github.com/rl1809/marketplace/internal/core/service"
	"github.com/rl1809/marketplace/internal/logger"
	"github.com/rl1809/marketplace/internal/port"
	"github.com/rl1809/marketplace/internal/telemetry"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.IsDevelopment(),
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:       cfg.OTel.Enabled,
		ServiceName:   cfg.OTel.ServiceName,
		Environment:   cfg.App.Environment,
		CollectorAddr: cfg.OTel.CollectorAddr,
		SampleRatio:   cfg.OTel.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	sink, closeSink, err := openSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	dispatcher := notify.NewDispatcher(sink, cfg.Notify.QueueSize, log)
	dispatcher.Start(cfg.Notify.Workers)

	tables := port.NewTables(backend.store)
	gate := service.NewGate(storage.NewProfileDirectory(tables), log)

	negotiation := service.NewNegotiationService(gate, tables, dispatcher, log, service.NegotiationConfig{
		AcceptMaxAttempts:      cfg.Engine.AcceptMaxAttempts,
		AcceptRetryDelay:       cfg.Engine.AcceptRetryDelay,
		RejectSiblingsOnAccept: cfg.Engine.AcceptRejectSiblings,
	})
	bookings := service.NewBookingService(gate, tables, storage.NewCatalog(tables), dispatcher, log)
	passes := service.NewPassService(gate, tables, backend.idempotency, dispatcher, log, service.PassConfig{
		PurchaseMaxAttempts: cfg.Engine.PurchaseMaxAttempts,
		PurchaseRetryDelay:  cfg.Engine.PurchaseRetryDelay,
	})

	verifier := identity.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)

	// gRPC
	grpcServer := grpc.NewServer()
	handler.NewGRPCHandler(negotiation, bookings, passes, verifier).Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	// HTTP
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestID(), handler.Logger(log))
	handler.NewHTTPHandler(negotiation, bookings, passes, backend.store).Register(router, verifier)

	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown", zap.Error(err))
	}
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	// Drain pending notifications before the sink goes away.
	dispatcher.Close()
	log.Info("notification workers stopped")

	return nil
}

type backend struct {
	store       port.Store
	idempotency port.IdempotencyRepository
	close       func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMySQL:
		db, err := sqlx.ConnectContext(ctx, "mysql", cfg.MySQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mysql: %w", err)
		}
		db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

		if err := storage.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("connected to mysql")

		// Idempotency keys still need a TTL store; MySQL deployments keep
		// them in process.
		return &backend{
			store:       storage.NewMySQLAdapter(db),
			idempotency: storage.NewMemoryIdempotency(idempotencyTTL),
			close:       func() { _ = db.Close() },
		}, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		log.Info("connected to redis")

		return &backend{
			store:       storage.NewRedisAdapter(rdb),
			idempotency: storage.NewRedisIdempotency(rdb),
			close:       func() { _ = rdb.Close() },
		}, nil

	default:
		log.Warn("using in-memory store, data is lost on restart")
		return &backend{
			store:       storage.NewMemoryAdapter(),
			idempotency: storage.NewMemoryIdempotency(idempotencyTTL),
			close:       func() {},
		}, nil
	}
}

func openSink(ctx context.Context, cfg *config.Config, log *zap.Logger) (notify.Sink, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("no kafka brokers configured, notifications are logged only")
		return notify.NewLogSink(log), func() {}, nil
	}

	sink, err := notify.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID)
	if err != nil {
		return nil, nil, err
	}
	log.Info("publishing notifications to kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)
	return sink, sink.Close, nil
}
