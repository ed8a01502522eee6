package rabbitmq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitError_WrapsCause(t *testing.T) {
	cause := errors.New("channel is closed")
	err := &EmitError{EventType: "user.created", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "user.created")
}

func TestConnectionError_WrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &ConnectionError{Op: "connect", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connect")
}
