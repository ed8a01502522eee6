package user

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/events"
	"github.com/LizaRyabtseva/user-microservices/internal/models"
)

// Emitter is the event-publishing port. The service only calls Emit after
// the corresponding storage mutation has committed.
type Emitter interface {
	Emit(eventType events.Type, payload any) error
}

// Projection is the public shape of a user record. It is both the HTTP read
// DTO and the payload of user.created events.
type Projection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// Page is one page of user projections.
type Page struct {
	Data       []Projection `json:"data"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int64        `json:"total"`
	TotalPages int64        `json:"totalPages"`
}

// Service orchestrates user storage mutations and the events they trigger.
// The ordering contract: an event is emitted if and only if the mutation
// has already committed, and a failed emission never rolls back a
// successful mutation.
type Service struct {
	repo    Repository
	emitter Emitter
	logger  *zap.Logger
}

// NewService wires the service with its storage and emitter collaborators.
func NewService(repo Repository, emitter Emitter, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		emitter: emitter,
		logger:  logger,
	}
}

func projection(u *models.User) Projection {
	return Projection{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Create inserts a new user and, only after the insert has committed,
// emits user.created with the created record's projection. A storage
// failure propagates immediately with nothing emitted. An emit failure
// propagates too, but the record stays persisted - there is no
// compensating delete.
func (s *Service) Create(ctx context.Context, params CreateParams) (Projection, error) {
	created, err := s.repo.Create(ctx, params)
	if err != nil {
		return Projection{}, err
	}

	proj := projection(created)
	if err := s.emitter.Emit(events.UserCreated, proj); err != nil {
		return Projection{}, err
	}

	s.logger.Info("Created user", zap.String("user_id", proj.ID))
	return proj, nil
}

// Update applies a partial update. Updates are not externally notable
// lifecycle events, so no event is emitted - only creation and deletion
// are.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Projection, error) {
	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Projection{}, err
	}

	s.logger.Info("Updated user", zap.String("user_id", id))
	return projection(updated), nil
}

// Delete removes a user and emits user.deleted once the delete has
// affected exactly one record. Zero affected records means the user did
// not exist; nothing is emitted.
func (s *Service) Delete(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%s", ErrNotFound, id)
	}

	if err := s.emitter.Emit(events.UserDeleted, events.UserDeletedPayload{ID: id}); err != nil {
		return err
	}

	s.logger.Info("Deleted user", zap.String("user_id", id))
	return nil
}

// Get returns a single user projection.
func (s *Service) Get(ctx context.Context, id string) (Projection, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Projection{}, err
	}
	return projection(u), nil
}

// List returns one page of users ordered by creation time descending.
// Pagination arguments are checked before any storage access.
func (s *Service) List(ctx context.Context, page, limit int) (Page, error) {
	if page < 1 || limit < 1 {
		return Page{}, ErrInvalidPagination
	}

	users, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		return Page{}, err
	}

	data := make([]Projection, 0, len(users))
	for i := range users {
		data = append(data, projection(&users[i]))
	}

	return Page{
		Data:       data,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}, nil
}
