package safecall

import (
	"errors"
	"testing"

	"github.com/gontp/taskpool/api"
)

func TestNativePassesThroughSuccess(t *testing.T) {
	if err := Native(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNativeConvertsPanic(t *testing.T) {
	err := Native(func() error { panic("boom") })
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %T", err)
	}
	if apiErr.Code != api.ErrCodeNativeFailure {
		t.Fatalf("expected ErrCodeNativeFailure, got %v", apiErr.Code)
	}
}

func TestCallbackConvertsPanic(t *testing.T) {
	err := Callback(func() { panic("user oops") })
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %T", err)
	}
	if apiErr.Code != api.ErrCodeUserCallbackFault {
		t.Fatalf("expected ErrCodeUserCallbackFault, got %v", apiErr.Code)
	}
}

func TestCallbackNoPanicReturnsNil(t *testing.T) {
	ran := false
	if err := Callback(func() { ran = true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("callback did not run")
	}
}
