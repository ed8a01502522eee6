package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LizaRyabtseva/user-microservices/internal/schema"
)

func TestParseType(t *testing.T) {
	parsed, err := ParseType("user.created")
	require.NoError(t, err)
	assert.Equal(t, UserCreated, parsed)

	parsed, err = ParseType("  User.Deleted ")
	require.NoError(t, err)
	assert.Equal(t, UserDeleted, parsed)

	_, err = ParseType("user.renamed")
	assert.Error(t, err)
}

func fieldsOf(errs []schema.FieldError) []string {
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}
	return names
}

func TestUserCreatedSchema_AcceptsFullPayload(t *testing.T) {
	errs := UserCreatedSchema.Validate(map[string]any{
		"id":        "682c5990bf4a775c8de9598a",
		"name":      "Liza",
		"email":     "liza@gmail.com",
		"createdAt": "2026-08-30T10:00:00Z",
	})
	assert.Empty(t, errs)
}

func TestUserCreatedSchema_IdOnlyPayloadRejectsThreeFields(t *testing.T) {
	// A user.deleted-shaped payload arriving under the user.created
	// routing key.
	errs := UserCreatedSchema.Validate(map[string]any{"id": "1"})
	require.Len(t, errs, 3)
	assert.ElementsMatch(t, []string{"name", "email", "createdAt"}, fieldsOf(errs))
}

func TestUserCreatedSchema_RejectsExtraField(t *testing.T) {
	errs := UserCreatedSchema.Validate(map[string]any{
		"id":        "1",
		"name":      "Liza",
		"email":     "liza@gmail.com",
		"createdAt": "2026-08-30T10:00:00Z",
		"role":      "admin",
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "role", errs[0].Field)
}

func TestUserDeletedSchema(t *testing.T) {
	assert.Empty(t, UserDeletedSchema.Validate(map[string]any{"id": "1"}))

	errs := UserDeletedSchema.Validate(map[string]any{})
	require.Len(t, errs, 1)
	assert.Equal(t, "id", errs[0].Field)

	errs = UserDeletedSchema.Validate(map[string]any{"id": "1", "name": "Liza"})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
}
