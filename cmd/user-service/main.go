package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/config"
	"github.com/LizaRyabtseva/user-microservices/internal/database"
	"github.com/LizaRyabtseva/user-microservices/internal/events"
	"github.com/LizaRyabtseva/user-microservices/internal/handlers"
	"github.com/LizaRyabtseva/user-microservices/internal/logger"
	"github.com/LizaRyabtseva/user-microservices/internal/rabbitmq"
	"github.com/LizaRyabtseva/user-microservices/internal/routes"
	"github.com/LizaRyabtseva/user-microservices/internal/user"
)

func main() {
	log, err := logger.Init(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.LoadUserService()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := database.RunMigrations(&cfg.Database, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// The broker connection is required before serving any traffic: a
	// mutation that cannot publish its event must not be accepted.
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

	producer := rabbitmq.NewProducer(rmq, cfg.Broker.Exchange, log)
	service := user.NewService(user.NewRepository(db), producer, log)

	app := fiber.New(fiber.Config{
		AppName: "User Service",
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	routes.SetupUserService(app,
		handlers.NewUsersHandler(service, log),
		handlers.NewHealthHandler(db, rmq),
	)

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
	if err := app.Shutdown(); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
