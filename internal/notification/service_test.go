package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedService() (*Service, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewService(zap.New(core)), logs
}

func TestHandleUserCreated_ValidPayload(t *testing.T) {
	svc, logs := newObservedService()

	err := svc.HandleUserCreated(map[string]any{
		"id":        "682c5990bf4a775c8de9598a",
		"name":      "Liza",
		"email":     "liza@gmail.com",
		"createdAt": "2026-08-30T10:00:00Z",
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("User created event received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Hello, Liza!", entries[0].ContextMap()["greeting"])
}

func TestHandleUserCreated_InvalidPayloadIsDropped(t *testing.T) {
	svc, logs := newObservedService()

	// Missing name, email and createdAt; the handler drops the payload
	// without signalling an error so the dispatcher acks and moves on.
	err := svc.HandleUserCreated(map[string]any{"id": "1"})
	require.NoError(t, err)

	assert.Empty(t, logs.FilterMessage("User created event received").All())

	warns := logs.FilterMessage("Event payload failed validation").All()
	require.Len(t, warns, 1)
	assert.Equal(t, "user.created", warns[0].ContextMap()["event_type"])
}

func TestHandleUserCreated_UnknownFieldIsDropped(t *testing.T) {
	svc, logs := newObservedService()

	err := svc.HandleUserCreated(map[string]any{
		"id":        "1",
		"name":      "Liza",
		"email":     "liza@gmail.com",
		"createdAt": "2026-08-30T10:00:00Z",
		"role":      "admin",
	})
	require.NoError(t, err)
	assert.Empty(t, logs.FilterMessage("User created event received").All())
}

func TestHandleUserDeleted_ValidPayload(t *testing.T) {
	svc, logs := newObservedService()

	err := svc.HandleUserDeleted(map[string]any{"id": "42"})
	require.NoError(t, err)

	entries := logs.FilterMessage("User deleted event received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "42", entries[0].ContextMap()["user_id"])
}

func TestHandleUserDeleted_EmptyIdIsDropped(t *testing.T) {
	svc, logs := newObservedService()

	err := svc.HandleUserDeleted(map[string]any{"id": ""})
	require.NoError(t, err)
	assert.Empty(t, logs.FilterMessage("User deleted event received").All())
	assert.Len(t, logs.FilterMessage("Event payload failed validation").All(), 1)
}
