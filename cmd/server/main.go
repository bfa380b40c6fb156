package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitsocial/api/handlers"
	"fitsocial/api/routes"
	"fitsocial/config"
	"fitsocial/db"
	"fitsocial/logger"
	"fitsocial/services"
	"fitsocial/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	conf := config.AppConfig
	logger.SetLevel(conf.Logs.Level)
	defer logger.Sync()
	logger.Info("Starting server...", zap.String("service", conf.Backend.ServiceName))

	orm, err := db.ConnectDB(conf)
	if err != nil {
		logger.Error("Failed to connect to the database", zap.Error(err))
		os.Exit(1)
	}
	st := store.New(orm, conf.IsTransactional())

	var cache services.FeedSourceCache = services.NopFeedSourceCache{}
	if conf.Redis.Host != "" {
		client, err := services.NewRedisClient(conf)
		if err != nil {
			logger.Warn("Redis unavailable, feed sources are not cached", zap.Error(err))
		} else {
			defer client.Close()
			cache = services.NewRedisFeedSourceCache(client, conf.Redis.FeedSourcesTTL)
		}
	}

	var events services.EventPublisher = services.NopPublisher{}
	if conf.RabbitMQ.URL != "" {
		publisher, err := services.NewRabbitPublisher(conf.RabbitMQ.URL, conf.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, relationship events are dropped", zap.Error(err))
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	resolver := services.NewResolver(st)
	h := handlers.NewHandlers(handlers.Services{
		Profiles: services.NewProfileService(st),
		Follows:  services.NewFollowService(st, events, cache),
		Friends:  services.NewFriendService(st, events),
		Resolver: resolver,
		Content:  services.NewContentService(st, resolver),
		Feed: services.NewFeedService(st, resolver, cache, services.FeedOptions{
			SourceLimit:        conf.Feed.SourceLimit,
			DefaultPageSize:    conf.Feed.DefaultPageSize,
			MaxPageSize:        conf.Feed.MaxPageSize,
			NotificationWindow: conf.Notifications.Window,
		}),
	}, conf.Backend.ServiceName)

	if conf.Logs.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.NewRouter(h, conf)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port),
		Handler: router,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}
