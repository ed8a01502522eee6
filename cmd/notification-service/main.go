package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/config"
	"github.com/LizaRyabtseva/user-microservices/internal/consumer"
	"github.com/LizaRyabtseva/user-microservices/internal/events"
	"github.com/LizaRyabtseva/user-microservices/internal/handlers"
	"github.com/LizaRyabtseva/user-microservices/internal/logger"
	"github.com/LizaRyabtseva/user-microservices/internal/notification"
	"github.com/LizaRyabtseva/user-microservices/internal/rabbitmq"
	"github.com/LizaRyabtseva/user-microservices/internal/routes"
)

func main() {
	log, err := logger.Init(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.LoadNotificationService()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	// Consuming must not begin without a broker connection.
	rmq := rabbitmq.NewConnection(&cfg.Broker, log)
	if err := rmq.Connect(); err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := rmq.Close(); err != nil {
			log.Error("Unclean RabbitMQ shutdown", zap.Error(err))
		}
	}()

	if err := rmq.DeclareTopology(
		cfg.Broker.Exchange,
		cfg.Broker.Queue,
		string(events.UserCreated),
		string(events.UserDeleted),
	); err != nil {
		log.Fatal("Failed to declare RabbitMQ topology", zap.Error(err))
	}

	service := notification.NewService(log)

	dispatcher := consumer.NewDispatcher(rmq, cfg.Broker.Queue, cfg.Consumer.Prefetch, log)
	dispatcher.Register(events.UserCreated, consumer.HandlerFunc(service.HandleUserCreated))
	dispatcher.Register(events.UserDeleted, consumer.HandlerFunc(service.HandleUserDeleted))

	if err := dispatcher.Start(); err != nil {
		log.Fatal("Failed to start dispatcher", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName: "Notification Service",
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupNotificationService(app, handlers.NewHealthHandler(nil, rmq))

	go func() {
		addr := cfg.Server.Addr()
		log.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	if err := dispatcher.Stop(); err != nil {
		log.Error("Error stopping dispatcher", zap.Error(err))
	}
	if err := app.Shutdown(); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
