package rabbitmq

import "fmt"

// ConnectionError reports a failure to establish or tear down the broker
// connection. It is fatal at service startup and surfaced, not swallowed,
// at shutdown so orchestration layers can detect an unclean stop.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rabbitmq %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// EmitError reports a failed publish after the connection was established.
// It carries the original cause; the caller decides whether emission failure
// fails the surrounding operation.
type EmitError struct {
	EventType string
	Err       error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit %s: %v", e.EventType, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }
