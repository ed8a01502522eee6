package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/schema"
	"github.com/LizaRyabtseva/user-microservices/internal/user"
)

var createUserSchema = &schema.Schema{
	Name: "CreateUser",
	Fields: []schema.Field{
		{Name: "name", Kind: schema.String, NonEmpty: true, MaxLen: 50},
		{Name: "email", Kind: schema.String, NonEmpty: true, Email: true},
	},
}

var updateUserSchema = &schema.Schema{
	Name: "UpdateUser",
	Fields: []schema.Field{
		{Name: "name", Kind: schema.String, Optional: true, NonEmpty: true, MaxLen: 50},
		{Name: "email", Kind: schema.String, Optional: true, NonEmpty: true, Email: true},
	},
}

// UsersHandler exposes the user CRUD endpoints.
type UsersHandler struct {
	service *user.Service
	logger  *zap.Logger
}

// NewUsersHandler creates the users handler with its dependencies.
func NewUsersHandler(service *user.Service, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	raw, ok := decodeBody(c)
	if !ok {
		return nil
	}
	if errs := createUserSchema.Validate(raw); len(errs) > 0 {
		return renderValidationErrors(c, errs)
	}

	params := user.CreateParams{
		Name:  raw["name"].(string),
		Email: raw["email"].(string),
	}
	created, err := h.service.Create(c.UserContext(), params)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	raw, ok := decodeBody(c)
	if !ok {
		return nil
	}
	if errs := updateUserSchema.Validate(raw); len(errs) > 0 {
		return renderValidationErrors(c, errs)
	}

	var params user.UpdateParams
	if name, present := raw["name"]; present {
		str := name.(string)
		params.Name = &str
	}
	if email, present := raw["email"]; present {
		str := email.(string)
		params.Email = &str
	}

	updated, err := h.service.Update(c.UserContext(), c.Params("id"), params)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(updated)
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	found, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(found)
}

// List handles GET /users with page and limit query parameters.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return nil
	}
	limit, ok := queryInt(c, "limit", 10)
	if !ok {
		return nil
	}

	result, err := h.service.List(c.UserContext(), page, limit)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(result)
}

// renderError maps the domain error taxonomy to HTTP statuses.
func (h *UsersHandler) renderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, user.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, user.ErrInvalidPagination):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

// decodeBody parses the request body into a raw map for schema validation.
// On malformed JSON it writes a 400 response and reports false.
func decodeBody(c *fiber.Ctx) (map[string]any, bool) {
	var raw map[string]any
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "request body must be a JSON object"})
		return nil, false
	}
	return raw, true
}

func renderValidationErrors(c *fiber.Ctx, errs []schema.FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "validation failed",
		"details": errs,
	})
}

// queryInt parses an integer query parameter. On a non-integer value it
// writes a 400 response and reports false.
func queryInt(c *fiber.Ctx, name string, defaultValue int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": name + " must be an integer"})
		return 0, false
	}
	return value, true
}
