package events

import (
	"fmt"
	"strings"
)

// Type names a domain event and doubles as the AMQP routing key the event is
// published under. It is immutable once published and selects the schema the
// consumer applies to the payload.
type Type string

const (
	UserCreated Type = "user.created"
	UserDeleted Type = "user.deleted"
)

// ParseType parses a string into an event Type.
// Returns an error if the event type is unknown.
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case UserCreated, UserDeleted:
		return t, nil
	}
	return "", fmt.Errorf("unknown event type: %s", name)
}

// UserCreatedPayload is the wire body of a user.created event.
type UserCreatedPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// UserDeletedPayload is the wire body of a user.deleted event.
type UserDeletedPayload struct {
	ID string `json:"id"`
}
