package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"messagebox/config"
	"messagebox/internal/events"
	"messagebox/internal/handler"
	messageboxredis "messagebox/internal/redis"
	"messagebox/internal/repository"
	"messagebox/internal/server"
	"messagebox/internal/services"
	"messagebox/pkg/database"
	"messagebox/pkg/logger"

	"github.com/Shopify/sarama"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	l := logger.New(cfg.Server.Environment)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		l.Errorf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	kafkaConfig := events.NewKafkaConfig()
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaConfig)
	if err != nil {
		l.Errorf("Failed to create Kafka producer: %v", err)
		os.Exit(1)
	}
	defer producer.Close()

	group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID, kafkaConfig)
	if err != nil {
		l.Errorf("Failed to create Kafka consumer group: %v", err)
		os.Exit(1)
	}

	storage := repository.NewConversationStorage(pool)
	cache := messageboxredis.NewUnreadCache(redisClient, messageboxredis.DefaultUnreadTTL)
	postman := events.NewKafkaPostMan(producer)
	service := services.NewConversationService(storage, postman, cache, l)

	listener := events.NewListener(group, service, l)
	go func() {
		if err := listener.Start(ctx); err != nil && err != context.Canceled {
			l.Errorf("Listener stopped: %v", err)
		}
	}()
	defer listener.Close()

	srv := server.New(cfg, l)
	srv.SetupRoutes(
		handler.NewConversationHandler(service),
		func(ctx context.Context) error { return pool.Ping(ctx) },
		cache.Ping,
	)

	go func() {
		if err := srv.Start(); err != nil {
			l.Errorf("Server stopped: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	l.Infof("Shutting down...")
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		l.Errorf("Server shutdown: %v", err)
	}
}
