package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shreyasmhade/QickServe/internal/dashboard"
	h "github.com/shreyasmhade/QickServe/internal/http"
	"github.com/shreyasmhade/QickServe/internal/kvstore"
	"github.com/shreyasmhade/QickServe/internal/lifecycle"
	"github.com/shreyasmhade/QickServe/internal/notify"
	"github.com/shreyasmhade/QickServe/internal/publisher"
	"github.com/shreyasmhade/QickServe/internal/repository"
)

type Config struct {
	HTTPPort        string
	Storage         string // memory | redis
	RedisAddr       string
	OrdersBackend   string // kv | postgres
	CatalogBackend  string // kv | mongo
	MongoURI        string
	MongoDatabase   string
	KafkaBrokers    string // empty disables publishing
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		Storage:         getEnv("STORAGE", "memory"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		OrdersBackend:   getEnv("ORDERS_BACKEND", "kv"),
		CatalogBackend:  getEnv("CATALOG", "kv"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "qickserve"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("qickserve starting...")
	var wg sync.WaitGroup

	cfg := loadConfig()
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// Storage + change bus. With Redis, writers publish through the store
	// itself and the bus only consumes, so the repositories get a nil bus.
	var store kvstore.Store
	var bus notify.Bus
	var repoBus notify.Bus

	switch cfg.Storage {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(runCtx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()

		store = kvstore.NewRedisStore(client)
		redisBus := notify.NewRedisBus(client, kvstore.ChangeChannel)
		wg.Add(1)
		go func() {
			defer wg.Done()
			redisBus.Run(runCtx)
		}()
		bus = redisBus
		repoBus = nil
	case "memory":
		store = kvstore.NewMemoryStore()
		memBus := notify.NewMemoryBus()
		bus = memBus
		repoBus = memBus
	default:
		log.Fatalf("Unknown STORAGE %q (want memory or redis)", cfg.Storage)
	}

	// Orders repository
	var orders repository.OrderRepository
	switch cfg.OrdersBackend {
	case "postgres":
		port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
		if err != nil {
			log.Fatalf("Invalid DB_PORT: %v", err)
		}
		creds := &repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              port,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "qickserve"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		}
		repo, err := repository.NewPostgresOrderRepository(creds)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer repo.Close()

		if err := repo.RunMigrations(creds); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations completed")
		orders = repo
	case "kv":
		orders = repository.NewKVOrderRepository(store, repoBus)
	default:
		log.Fatalf("Unknown ORDERS_BACKEND %q (want kv or postgres)", cfg.OrdersBackend)
	}

	// Restaurant catalog
	var restaurants repository.RestaurantRepository
	switch cfg.CatalogBackend {
	case "mongo":
		db, err := repository.ConnectMongoDB(runCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to mongodb: %v", err)
		}
		defer func() {
			if errDisconnect := db.Client().Disconnect(context.Background()); errDisconnect != nil {
				log.Printf("error disconnecting mongodb: %v", errDisconnect)
			}
		}()
		restaurants = repository.NewMongoRestaurantRepository(db)
	case "kv":
		restaurants = repository.NewKVRestaurantRepository(store, repoBus)
	default:
		log.Fatalf("Unknown CATALOG %q (want kv or mongo)", cfg.CatalogBackend)
	}

	// Event outbox; publishing is off without brokers but events still queue.
	outbox := publisher.NewOutbox(store)
	engine := lifecycle.NewEngine(orders, restaurants, outbox)

	if cfg.KafkaBrokers != "" {
		poller := publisher.NewOutboxPoller(outbox, strings.Split(cfg.KafkaBrokers, ",")...)
		defer poller.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(runCtx)
		}()
		log.Printf("Publishing order events to %s", cfg.KafkaBrokers)
	}

	// Dashboard refresh loop
	dash := dashboard.NewService(engine, bus)
	wg.Add(1)
	go func() {
		defer wg.Done()
		dash.Run(runCtx)
	}()

	router := h.NewRouter(
		h.NewOrdersHandler(engine, cfg.RequestTimeout),
		h.NewRestaurantsHandler(restaurants, cfg.RequestTimeout),
		h.NewDashboardHandler(dash, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "qickserve"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("qickserve listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	runCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Println("background workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("background workers didn't stop in time")
	}

	log.Println("qickserve stopped")
}
