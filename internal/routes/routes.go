package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LizaRyabtseva/user-microservices/internal/handlers"
)

// SetupUserService configures the user-service routes.
func SetupUserService(app *fiber.App, users *handlers.UsersHandler, health *handlers.HealthHandler) {
	app.Get("/health", health.Check)

	app.Post("/users", users.Create)
	app.Get("/users", users.List)
	app.Get("/users/:id", users.Get)
	app.Patch("/users/:id", users.Update)
	app.Delete("/users/:id", users.Delete)
}

// SetupNotificationService configures the notification-service routes.
// The consumer has no request surface beyond its health check.
func SetupNotificationService(app *fiber.App, health *handlers.HealthHandler) {
	app.Get("/health", health.Check)
}
