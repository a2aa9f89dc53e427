package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/events"
	"github.com/uma-arai/sbcntr-hotel/internal/handler"
	"github.com/uma-arai/sbcntr-hotel/internal/idempotency"
	"github.com/uma-arai/sbcntr-hotel/internal/payment"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
	"github.com/uma-arai/sbcntr-hotel/internal/service/booking"
)

const (
	projectName     = "sbcntr-hotel-api"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// 設定の読み込み
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v\nStack trace:\n%s", err, debug.Stack())
	}

	// X-Ray設定
	if cfg.EnableTracing {
		if err := xray.Configure(xray.Config{
			DaemonAddr:     "127.0.0.1:2000", // X-Rayデーモンのアドレス
			ServiceVersion: "1.0.0",
		}); err != nil {
			log.Printf("Failed to configure X-Ray: %v", err)
			if configErr := xray.Configure(xray.Config{}); configErr != nil {
				log.Fatalf("Failed to configure default X-Ray settings: %v", configErr)
			}
		}
		os.Setenv("AWS_XRAY_CONTEXT_MISSING", "LOG_ERROR")
	}

	ctx := context.Background()
	checks := map[string]handler.HealthCheck{}

	// 台帳と客室在庫
	var reservations repository.ReservationRepository
	var rooms repository.RoomRepository
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := database.NewDB(ctx, cfg.DB)
		if err != nil {
			log.Fatalf("Failed to create database connection: %v", err)
		}
		defer db.Close()

		repoDB := repository.NewDB(db.DB)
		reservations = repository.NewReservationRepository(repoDB)
		rooms = repository.NewRoomRepository(repoDB)
		checks["postgres"] = db.PingContext
		log.Printf("Storage: PostgreSQL (%s:%d/%s)", cfg.DB.Host, cfg.DB.Port, cfg.DB.DBName)
	default:
		reservations = repository.NewMemoryReservationRepository()
		rooms = repository.NewMemoryRoomRepository()
		log.Println("Storage: in-memory (set SBCNTR_STORAGE=postgres for PostgreSQL)")
	}

	// 冪等キー
	var store idempotency.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("Redis ping failed (%s), using in-memory idempotency: %v", cfg.Redis.Addr, err)
			store = idempotency.NewMemoryStore()
		} else {
			store = idempotency.NewRedisStore(rdb)
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			log.Println("Booking idempotency: Redis (TTL 24h)")
		}
	} else {
		store = idempotency.NewMemoryStore()
		log.Println("Booking idempotency: in-memory (set REDIS_ADDR for Redis)")
	}

	// 予約イベント
	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Printf("Reservation events: Kafka topic %s", cfg.Kafka.Topic)
	} else {
		publisher = events.NewLogPublisher()
		log.Println("Reservation events: log only (set KAFKA_BROKERS for Kafka)")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("Failed to close event publisher: %v", err)
		}
	}()

	service := booking.NewService(reservations, rooms, payment.NewResolver(payment.NewLogGateway()), publisher)

	if cfg.Local {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.New(service, store, checks).HTTPHandler(projectName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// シグナルハンドリング
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Hotel API is running on port %d", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-errChan:
		log.Printf("Server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	log.Println("Hotel API stopped")
}
