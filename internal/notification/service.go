// Package notification reacts to user lifecycle events delivered by the
// broker. Every raw payload is validated against its schema before it is
// trusted; invalid payloads are logged with their field-level errors and
// dropped. The dispatcher acknowledges them regardless - redelivery could
// never make a malformed payload valid.
package notification

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/LizaRyabtseva/user-microservices/internal/events"
	"github.com/LizaRyabtseva/user-microservices/internal/schema"
)

// Service holds the reaction logic for consumed events. Currently the
// reaction is a structured log line per event.
type Service struct {
	logger *zap.Logger
}

// NewService creates the notification service.
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// HandleUserCreated validates and reacts to one user.created payload.
func (s *Service) HandleUserCreated(raw map[string]any) error {
	if errs := events.UserCreatedSchema.Validate(raw); len(errs) > 0 {
		s.logValidationFailure(events.UserCreated, errs)
		return nil
	}

	var dto events.UserCreatedPayload
	if err := decodePayload(raw, &dto); err != nil {
		return fmt.Errorf("failed to decode user.created payload: %w", err)
	}

	s.logger.Info("User created event received",
		zap.String("user_id", dto.ID),
		zap.String("greeting", fmt.Sprintf("Hello, %s!", dto.Name)),
	)
	return nil
}

// HandleUserDeleted validates and reacts to one user.deleted payload.
func (s *Service) HandleUserDeleted(raw map[string]any) error {
	if errs := events.UserDeletedSchema.Validate(raw); len(errs) > 0 {
		s.logValidationFailure(events.UserDeleted, errs)
		return nil
	}

	var dto events.UserDeletedPayload
	if err := decodePayload(raw, &dto); err != nil {
		return fmt.Errorf("failed to decode user.deleted payload: %w", err)
	}

	s.logger.Info("User deleted event received",
		zap.String("user_id", dto.ID),
	)
	return nil
}

func (s *Service) logValidationFailure(eventType events.Type, errs []schema.FieldError) {
	s.logger.Warn("Event payload failed validation",
		zap.String("event_type", string(eventType)),
		zap.Any("field_errors", errs),
	)
}

// decodePayload round-trips the validated raw map into its typed DTO.
func decodePayload(raw map[string]any, out any) error {
	body, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
