package domain

import (
	"errors"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("text", "required")

	if got := err.Error(); got != "validation: text: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "text", Message: "required"},
		{Field: "senses", Message: "at least one required"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	t.Parallel()

	err := NewValidationError("email", "invalid format")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("Unwrap should return ErrValidation")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation,
		ErrUnauthorized, ErrForbidden, ErrConflict,
		ErrStorage, ErrNetwork, ErrRemote, ErrOffline,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}

func TestStorageError_IsStorageAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk I/O error")
	err := NewStorageError("insert bookmark", cause)

	if !errors.Is(err, ErrStorage) {
		t.Fatal("errors.Is(err, ErrStorage) = false")
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrNetwork) {
		t.Fatal("storage error must not match ErrNetwork")
	}
	if got := err.Error(); got != "storage: insert bookmark: disk I/O error" {
		t.Fatalf("unexpected Error(): %q", got)
	}
}

func TestNewStorageError_Nil(t *testing.T) {
	t.Parallel()

	if err := NewStorageError("noop", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestNetworkAndRemoteErrors(t *testing.T) {
	t.Parallel()

	netErr := &NetworkError{Op: "fetch snapshot", Err: errors.New("connection refused")}
	if !errors.Is(netErr, ErrNetwork) {
		t.Error("errors.Is(netErr, ErrNetwork) = false")
	}

	remoteErr := &RemoteError{Op: "push bookmarks", Status: 500, Message: "boom"}
	if !errors.Is(remoteErr, ErrRemote) {
		t.Error("errors.Is(remoteErr, ErrRemote) = false")
	}
	if got := remoteErr.Error(); got != "remote: push bookmarks: status 500: boom" {
		t.Errorf("unexpected Error(): %q", got)
	}
}
