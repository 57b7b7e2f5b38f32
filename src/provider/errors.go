package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
)

var (
	ErrAuthFailed      = errors.New("authentication failed")
	ErrBuildNotFound   = errors.New("build not found")
	ErrInvalidURL      = errors.New("invalid build reference")
	ErrMissingBasePath = errors.New("BasePath must be set in configuration")
	ErrOtherProject    = errors.New("build URL is outside the configured project")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts Azure DevOps and configuration errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return err
	}

	status := statusCode(err)
	msg := err.Error()

	if errors.Is(err, ErrInvalidURL) {
		return &UserError{
			Message: "Invalid build reference",
			Hint:    "Pass a numeric build id or a results URL:\n  - 1234\n  - https://dev.azure.com/org/project/_build/results?buildId=1234",
			Err:     err,
		}
	}

	if errors.Is(err, ErrOtherProject) {
		return &UserError{
			Message: "Build is in another project",
			Hint:    "This server only reads builds of its configured organization and project. Pass a build id or a results URL from that project.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrMissingBasePath) {
		return &UserError{
			Message: "Log archive is not configured",
			Hint:    "Set BasePath in appsettings.json or AZDO_BASE_PATH in the environment.",
			Err:     err,
		}
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.HasPrefix(msg, "401 ") || errors.Is(err, ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check that the personal access token is valid and has Build (Read) scope.\n  - Set VSKey in appsettings.json or AZDO_PAT in the environment",
			Err:     err,
		}
	}

	if status == http.StatusNotFound || strings.HasPrefix(msg, "404 ") || errors.Is(err, ErrBuildNotFound) {
		return &UserError{
			Message: "Build not found",
			Hint:    "Check that the build id is correct and belongs to the configured project.",
			Err:     err,
		}
	}

	return err
}

// statusCode extracts the HTTP status from an Azure DevOps SDK error, or 0.
func statusCode(err error) int {
	var wrapped *azuredevops.WrappedError
	if errors.As(err, &wrapped) && wrapped.StatusCode != nil {
		return *wrapped.StatusCode
	}
	return 0
}
