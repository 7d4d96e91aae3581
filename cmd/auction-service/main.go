package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live-auction/internal/api/handlers"
	apimiddleware "live-auction/internal/api/middleware"
	"live-auction/internal/catalog"
	"live-auction/internal/config"
	"live-auction/internal/infrastructure/memory"
	"live-auction/internal/infrastructure/mysql"
	natssink "live-auction/internal/infrastructure/nats"
	"live-auction/internal/infrastructure/redis"
	"live-auction/internal/infrastructure/websocket"
	"live-auction/internal/services"
	"live-auction/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal("Failed to load config", "error", err)
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	log.Info("Starting live auction service", "config", cfg.GetConfigString())

	// Seed the catalog
	items, err := catalog.Build(cfg.Catalog.Items, time.Now())
	if err != nil {
		log.Fatal("Failed to build catalog", "error", err)
	}
	store := memory.NewAuctionStore(time.Now)
	if err := store.Seed(items); err != nil {
		log.Fatal("Failed to seed catalog", "error", err)
	}
	log.Info("Catalog seeded", "items", len(items))

	// Event sinks
	connManager := websocket.NewConnectionManager(log)
	fanout := services.NewFanoutPublisher(log)
	fanout.Register("websocket", websocket.NewWebSocketNotifier(connManager))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		defer rdb.Close()
		fanout.Register("redis", redis.NewEventPublisher(rdb, cfg.Redis.Channel))
		log.Info("Connected to Redis", "address", cfg.Redis.Address, "channel", cfg.Redis.Channel)
	}

	if cfg.NATS.Enabled {
		nc, err := natssink.Connect(cfg.NATS.URL, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", "error", err)
		}
		defer nc.Drain()
		fanout.Register("nats", natssink.NewEventPublisher(nc, cfg.NATS.SubjectPrefix))
		log.Info("Connected to NATS", "url", cfg.NATS.URL, "subject_prefix", cfg.NATS.SubjectPrefix)
	}

	if cfg.MySQL.Enabled {
		db, err := mysql.Open(ctx, cfg.MySQL)
		if err != nil {
			log.Fatal("Failed to connect to MySQL", "error", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close MySQL connection", "error", err)
			}
		}()
		archive := mysql.NewEventArchive(db)
		if err := archive.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to create event archive", "error", err)
		}
		fanout.Register("mysql", archive)
		log.Info("Connected to MySQL")
	}

	// Auction core
	publisher := services.NewEventSequencer(fanout, log)
	locker := services.NewItemLocker(cfg.Auction.LockWait)
	engine := services.NewBidEngine(store, locker, publisher, time.Now, log)
	maxIncrement, err := cfg.Auction.IncrementCap()
	if err != nil {
		log.Fatal("Invalid bid limits", "error", err)
	}
	engine.SetLimits(services.BidLimits{Scale: cfg.Auction.BidScale, MaxIncrement: maxIncrement})
	sweeper := services.NewExpirySweeper(store, locker, publisher,
		cfg.Auction.SweepInterval, cfg.Auction.SweepLockWait, time.Now, log)
	auctionService := services.NewAuctionService(store, engine, sweeper, time.Now)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"error":"${error}","latency_human":"${latency_human}"}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("4K"))
	e.Use(echo.WrapMiddleware(apimiddleware.CORS(cfg.CORS.AllowOrigins, log)))

	handlers.NewAuctionHandler(auctionService, log).Register(e)

	wsRouter := handlers.NewWebSocketHandlers(auctionService, connManager, cfg.CORS.AllowOrigins, log).Router()
	e.GET("/ws", echo.WrapHandler(wsRouter))
	e.GET("/ws/items/:itemID", echo.WrapHandler(wsRouter))

	if err := sweeper.Start(context.Background()); err != nil {
		log.Fatal("Failed to start expiry sweeper", "error", err)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down live auction service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop expiry sweeper", "error", err)
	}
	if err := connManager.CloseAll(); err != nil {
		log.Error("Failed to close websocket connections", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Live auction service stopped")
}
