// Package main is the entry point for the API server. It wires the
// database, cache, event producer, background jobs, and HTTP router, then
// serves until interrupted.
package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"blizz/internal/config"
	"blizz/internal/jobs"
	"blizz/internal/repositories"
	"blizz/internal/repositories/cache"
	"blizz/internal/routes"
	"blizz/internal/services/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	// Production reads its environment from the orchestrator, not a file.
	if !config.IsProduction() {
		config.LoadEnv()
	}

	// InitDB applies pool settings and migrations.
	db, err := repositories.InitDB(repositories.DefaultDBConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	defer sqlDB.Close()

	rdb := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	defer rdb.Close()

	// Kafka is optional; without brokers configured, state-transition
	// events are dropped.
	var publisher events.Publisher = events.NoopPublisher{}
	if brokers := config.GetEnv("KAFKA_BROKERS", ""); brokers != "" {
		producer, err := events.NewKafkaProducer(strings.Split(brokers, ","))
		if err != nil {
			log.Printf("Kafka unavailable, events disabled: %v", err)
		} else {
			kafkaPublisher := events.NewKafkaPublisher(producer, config.GetEnv("KAFKA_TOPIC", "blizz.events"))
			defer kafkaPublisher.Close()
			publisher = kafkaPublisher
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "blizz-api",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	services := routes.Setup(app, routes.Deps{
		DB:        db,
		Redis:     rdb,
		Publisher: publisher,
	})

	scheduler := jobs.NewScheduler(services.Transaction, services.Currency)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	go func() {
		if err := app.Listen(":" + config.GetEnv("PORT", "8080")); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
