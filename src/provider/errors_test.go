package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
)

func sdkError(status int, message string) error {
	return &azuredevops.WrappedError{StatusCode: &status, Message: &message}
}

func TestWrapError_InvalidURL(t *testing.T) {
	err := fmt.Errorf("%w: https://invalid.com", ErrInvalidURL)
	wrapped := WrapError(err)

	userErr, ok := wrapped.(*UserError)
	if !ok {
		t.Fatalf("WrapError() returned %T, want *UserError", wrapped)
	}

	if userErr.Message != "Invalid build reference" {
		t.Errorf("Message = %q, want %q", userErr.Message, "Invalid build reference")
	}

	if !strings.Contains(userErr.Hint, "dev.azure.com") {
		t.Errorf("Hint should contain 'dev.azure.com', got %q", userErr.Hint)
	}

	if !errors.Is(wrapped, ErrInvalidURL) {
		t.Error("errors.Is(wrapped, ErrInvalidURL) = false, want true")
	}
}

func TestWrapError_MissingBasePath(t *testing.T) {
	wrapped := WrapError(fmt.Errorf("archive: %w", ErrMissingBasePath))

	userErr, ok := wrapped.(*UserError)
	if !ok {
		t.Fatalf("WrapError() returned %T, want *UserError", wrapped)
	}
	if !strings.Contains(userErr.Hint, "AZDO_BASE_PATH") {
		t.Errorf("Hint should contain 'AZDO_BASE_PATH', got %q", userErr.Hint)
	}
	if !errors.Is(wrapped, ErrMissingBasePath) {
		t.Error("errors.Is(wrapped, ErrMissingBasePath) = false, want true")
	}
}

func TestWrapError_AuthFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "401 Unauthorized message",
			err:  errors.New("401 Unauthorized"),
		},
		{
			name: "ErrAuthFailed sentinel",
			err:  ErrAuthFailed,
		},
		{
			name: "wrapped ErrAuthFailed",
			err:  fmt.Errorf("request failed: %w", ErrAuthFailed),
		},
		{
			name: "sdk 401",
			err:  fmt.Errorf("listing builds: %w", sdkError(http.StatusUnauthorized, "TF400813")),
		},
		{
			name: "sdk 403",
			err:  sdkError(http.StatusForbidden, "access denied"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err)

			userErr, ok := wrapped.(*UserError)
			if !ok {
				t.Fatalf("WrapError() returned %T, want *UserError", wrapped)
			}

			if userErr.Message != "Authentication failed" {
				t.Errorf("Message = %q, want %q", userErr.Message, "Authentication failed")
			}

			if !strings.Contains(userErr.Hint, "AZDO_PAT") {
				t.Errorf("Hint should contain 'AZDO_PAT', got %q", userErr.Hint)
			}
		})
	}
}

func TestWrapError_BuildNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "404 Not Found message",
			err:  errors.New("404 Not Found"),
		},
		{
			name: "ErrBuildNotFound sentinel",
			err:  ErrBuildNotFound,
		},
		{
			name: "sdk 404",
			err:  fmt.Errorf("reading timeline: %w", sdkError(http.StatusNotFound, "not found")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err)

			userErr, ok := wrapped.(*UserError)
			if !ok {
				t.Fatalf("WrapError() returned %T, want *UserError", wrapped)
			}

			if userErr.Message != "Build not found" {
				t.Errorf("Message = %q, want %q", userErr.Message, "Build not found")
			}
		})
	}
}

func TestWrapError_OtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "generic error",
			err:  errors.New("something went wrong"),
		},
		{
			name: "500 Internal Server Error",
			err:  errors.New("500 Internal Server Error"),
		},
		{
			name: "sdk 500",
			err:  sdkError(http.StatusInternalServerError, "boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err)

			if wrapped != tt.err {
				t.Errorf("WrapError() = %v, want original error %v", wrapped, tt.err)
			}
		})
	}
}

func TestWrapError_NilError(t *testing.T) {
	if wrapped := WrapError(nil); wrapped != nil {
		t.Errorf("WrapError(nil) = %v, want nil", wrapped)
	}
}

func TestWrapError_AlreadyWrapped(t *testing.T) {
	original := &UserError{Message: "custom"}
	if wrapped := WrapError(original); wrapped != error(original) {
		t.Errorf("WrapError() rewrapped an existing *UserError: %v", wrapped)
	}
}

func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name    string
		userErr *UserError
		want    string
	}{
		{
			name:    "message only",
			userErr: &UserError{Message: "Something went wrong"},
			want:    "Something went wrong",
		},
		{
			name:    "message with hint",
			userErr: &UserError{Message: "Something went wrong", Hint: "Try this"},
			want:    "Something went wrong\n\nHint: Try this",
		},
		{
			name:    "message with hint and error",
			userErr: &UserError{Message: "Something went wrong", Hint: "Try this", Err: errors.New("original")},
			want:    "Something went wrong\n\nHint: Try this\n\nDetails: original",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.userErr.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserError_Unwrap(t *testing.T) {
	userErr := &UserError{Message: "Something went wrong", Err: ErrAuthFailed}

	if !errors.Is(userErr, ErrAuthFailed) {
		t.Error("errors.Is(userErr, ErrAuthFailed) = false, want true")
	}
	if (&UserError{}).Unwrap() != nil {
		t.Error("Unwrap() on empty UserError should be nil")
	}
}

func TestWrapError_OtherProject(t *testing.T) {
	err := WrapError(fmt.Errorf("%w: URL project %q", ErrOtherProject, "Tailspin"))

	var userErr *UserError
	if !errors.As(err, &userErr) {
		t.Fatalf("WrapError() = %T, want *UserError", err)
	}
	if userErr.Message != "Build is in another project" {
		t.Errorf("Message = %q", userErr.Message)
	}
	if !errors.Is(err, ErrOtherProject) {
		t.Error("wrapped error does not match ErrOtherProject")
	}
}
