package errcode

import (
	"errors"
	"fmt"
	"testing"
)

// TestLayeredError_New test for creating layered error codes
func TestLayeredError_New(t *testing.T) {
	err := New(20, 1, "event", "error.event.nil", "event must not be nil")

	if err.Code() != 200001 {
		t.Errorf("expected code 200001, got %d", err.Code())
	}
	if err.Module() != "event" {
		t.Errorf("expected module 'event', got %s", err.Module())
	}
	if err.MsgKey() != "error.event.nil" {
		t.Errorf("expected msgKey 'error.event.nil', got %s", err.MsgKey())
	}
	if err.Message() != "event must not be nil" {
		t.Errorf("unexpected message %s", err.Message())
	}
}

// TestLayeredError_Error_WithCause tests the error string with an original error
func TestLayeredError_Error_WithCause(t *testing.T) {
	cause := errors.New("pool is closed")
	err := New(20, 5, "event", "error.event.executor_rejected", "executor rejected task").Wrap(cause)

	expected := "executor rejected task: pool is closed"
	if err.Error() != expected {
		t.Errorf("expected error message '%s', got %s", expected, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to reach the cause")
	}
}

// TestLayeredError_Wrap_Nil wrapping nil returns the receiver
func TestLayeredError_Wrap_Nil(t *testing.T) {
	err := New(20, 1, "event", "error.event.nil", "event must not be nil")
	if err.Wrap(nil) != err {
		t.Errorf("expected Wrap(nil) to return the same instance")
	}
}

// TestLayeredError_WithData the original instance is left untouched
func TestLayeredError_WithData(t *testing.T) {
	original := New(20, 3, "event", "error.event.invalid_listener", "invalid listener")
	modified := original.WithData("type", "*main.Dog")

	if len(original.Data()) != 0 {
		t.Errorf("original data should be empty, got %d items", len(original.Data()))
	}
	if modified.Data()["type"] != "*main.Dog" {
		t.Errorf("expected type=*main.Dog, got %v", modified.Data()["type"])
	}
}

// TestLayeredError_WithMsgf formatted messages keep the code
func TestLayeredError_WithMsgf(t *testing.T) {
	err := New(20, 3, "event", "error.event.invalid_listener", "invalid listener")
	modified := err.WithMsgf("type %s is not async", "*main.Ping")

	if modified.Message() != "type *main.Ping is not async" {
		t.Errorf("unexpected message %s", modified.Message())
	}
	if modified.Code() != err.Code() {
		t.Errorf("code should not change, got %d", modified.Code())
	}
}

// TestLayeredError_Is errors.Is matches by code through wrapping
func TestLayeredError_Is(t *testing.T) {
	base := New(20, 2, "event", "error.event.async_fired", "async event fired synchronously")
	derived := base.WithMsgf("cannot fire %s", "*main.Save")
	wrapped := fmt.Errorf("fire: %w", derived)

	if !errors.Is(wrapped, base) {
		t.Errorf("expected errors.Is to match by code")
	}
	other := New(20, 3, "event", "error.event.invalid_listener", "invalid listener")
	if errors.Is(wrapped, other) {
		t.Errorf("different codes must not match")
	}
}

// TestRegistry_Register duplicate registration is idempotent
func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(New(20, 1, "event", "error.event.nil", "event must not be nil"))
	r.Register(New(20, 1, "event", "error.event.nil", "event must not be nil"))
	r.Register(New(30, 1, "future", "error.future.nil", "nil"))

	codes := r.Codes()
	if len(codes) != 2 || codes[0] != 200001 || codes[1] != 300001 {
		t.Errorf("unexpected codes %v", codes)
	}
	if key, ok := r.Lookup(200001); !ok || key != "event:error.event.nil" {
		t.Errorf("unexpected lookup %q %v", key, ok)
	}
}

// TestRegistry_Register_Conflict conflicting keys panic
func TestRegistry_Register_Conflict(t *testing.T) {
	r := NewRegistry()
	r.Register(New(20, 1, "event", "error.event.nil", "event must not be nil"))

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for conflicting error code")
		}
	}()
	r.Register(New(20, 1, "event", "error.event.other", "other"))
}
