package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/events"
	"github.com/LizaRyabtseva/user-microservices/internal/models"
	"github.com/LizaRyabtseva/user-microservices/internal/user"
)

type fakeRepo struct {
	users map[string]models.User
}

func (r *fakeRepo) Create(ctx context.Context, params user.CreateParams) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == params.Email {
			return nil, fmt.Errorf("%w: %s", user.ErrEmailTaken, params.Email)
		}
	}
	u := models.User{
		ID:        uuid.New(),
		Name:      params.Name,
		Email:     params.Email,
		CreatedAt: time.Now().UTC(),
	}
	r.users[u.ID.String()] = u
	return &u, nil
}

func (r *fakeRepo) Update(ctx context.Context, id string, params user.UpdateParams) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%s", user.ErrNotFound, id)
	}
	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Email != nil {
		u.Email = *params.Email
	}
	r.users[id] = u
	return &u, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%s", user.ErrNotFound, id)
	}
	return &u, nil
}

func (r *fakeRepo) FindAll(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	all := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	return all, int64(len(all)), nil
}

type noopEmitter struct{}

func (noopEmitter) Emit(eventType events.Type, payload any) error { return nil }

func newTestApp() (*fiber.App, *fakeRepo) {
	repo := &fakeRepo{users: make(map[string]models.User)}
	service := user.NewService(repo, noopEmitter{}, zap.NewNop())
	h := NewUsersHandler(service, zap.NewNop())

	app := fiber.New()
	app.Post("/users", h.Create)
	app.Get("/users", h.List)
	app.Get("/users/:id", h.Get)
	app.Patch("/users/:id", h.Update)
	app.Delete("/users/:id", h.Delete)
	return app, repo
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestCreateUser_Returns201WithProjection(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodPost, "/users", map[string]any{
		"name":  "Liza",
		"email": "liza@gmail.com",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created user.Projection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)
	assert.Equal(t, "Liza", created.Name)
	assert.Equal(t, "liza@gmail.com", created.Email)
}

func TestCreateUser_ValidationFailureReturns400WithFieldErrors(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodPost, "/users", map[string]any{
		"name": "Liza",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error   string `json:"error"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Details, 1)
	assert.Equal(t, "email", body.Details[0].Field)
}

func TestCreateUser_DuplicateEmailReturns409(t *testing.T) {
	app, _ := newTestApp()

	payload := map[string]any{"name": "Liza", "email": "liza@gmail.com"}
	resp := doJSON(t, app, http.MethodPost, "/users", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/users", payload)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGetUser_MissingReturns404(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodGet, "/users/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteUser(t *testing.T) {
	app, repo := newTestApp()

	resp := doJSON(t, app, http.MethodPost, "/users", map[string]any{
		"name":  "Liza",
		"email": "liza@gmail.com",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created user.Projection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = doJSON(t, app, http.MethodDelete, "/users/"+created.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Empty(t, repo.users)

	resp = doJSON(t, app, http.MethodDelete, "/users/"+created.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPatchUser_InvalidEmailReturns400(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodPatch, "/users/some-id", map[string]any{
		"email": "not-an-email",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListUsers_PaginationErrors(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodGet, "/users?page=0", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/users?limit=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListUsers_DefaultsApply(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodGet, "/users", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page user.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
}
