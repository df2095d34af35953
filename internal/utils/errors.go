package utils

import (
	"fmt"

	"github.com/dl-alexandre/mail/internal/types"
)

// Error codes returned in the CLI JSON envelope's errors[].code field.
const (
	ErrCodeAuthRequired      = "AUTH_REQUIRED"
	ErrCodeAuthExpired       = "AUTH_EXPIRED"
	ErrCodeAuthClientMissing = "AUTH_CLIENT_MISSING"
	ErrCodeAuthClientPartial = "AUTH_CLIENT_PARTIAL"
	ErrCodeMessageNotFound   = "MESSAGE_NOT_FOUND"
	ErrCodePermissionDenied  = "PERMISSION_DENIED"
	ErrCodeQuotaExceeded     = "QUOTA_EXCEEDED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInvalidArgument   = "INVALID_ARGUMENT"
	ErrCodePolicyViolation   = "POLICY_VIOLATION"
	ErrCodeNetworkError      = "NETWORK_ERROR"
	ErrCodeWorkflowNotFound  = "WORKFLOW_NOT_FOUND"
	ErrCodeWorkflowExpired   = "WORKFLOW_EXPIRED"
	ErrCodeStyleViolation    = "STYLE_VIOLATION"
	ErrCodeGroupNotFound     = "GROUP_NOT_FOUND"
	ErrCodeUnknown           = "UNKNOWN"
)

// Process exit codes, one per broad error category.
const (
	ExitSuccess          = 0
	ExitUnknown          = 1 // generic failure
	ExitUsageError       = 2
	ExitNotAuthorized    = 3
	ExitNotFound         = 4
	ExitTokenExpired     = 5
	ExitValidationFailed = 6
	ExitTransientError   = 7
)

// GetExitCode maps a CLIError code to a process exit code.
func GetExitCode(code string) int {
	switch code {
	case ErrCodeInvalidArgument:
		return ExitUsageError
	case ErrCodeAuthRequired, ErrCodeAuthExpired, ErrCodeAuthClientMissing, ErrCodeAuthClientPartial, ErrCodePermissionDenied:
		return ExitNotAuthorized
	case ErrCodeMessageNotFound, ErrCodeGroupNotFound, ErrCodeWorkflowNotFound:
		return ExitNotFound
	case ErrCodeWorkflowExpired:
		return ExitTokenExpired
	case ErrCodeStyleViolation:
		return ExitValidationFailed
	case ErrCodeQuotaExceeded, ErrCodeRateLimited, ErrCodeNetworkError:
		return ExitTransientError
	default:
		return ExitUnknown
	}
}

// CLIError is an alias for the envelope's serializable error shape, so the
// builder below can be used directly wherever a types.CLIError is expected
// (the CLI output envelope, handleCLIError) without a conversion step.
type CLIError = types.CLIError

// CLIErrorBuilder accumulates CLIError fields with a fluent API.
type CLIErrorBuilder struct {
	err CLIError
}

// NewCLIError starts a builder for a CLIError with the given code and message.
func NewCLIError(code, message string) *CLIErrorBuilder {
	return &CLIErrorBuilder{err: CLIError{Code: code, Message: message}}
}

func (b *CLIErrorBuilder) WithHTTPStatus(status int) *CLIErrorBuilder {
	b.err.HTTPStatus = status
	return b
}

// WithGmailReason records the Gmail API's machine-readable error reason
// (the googleapi.ErrorItem.Reason string), e.g. "rateLimitExceeded".
func (b *CLIErrorBuilder) WithGmailReason(reason string) *CLIErrorBuilder {
	b.err.GmailReason = reason
	return b
}

func (b *CLIErrorBuilder) WithRetryable(retryable bool) *CLIErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *CLIErrorBuilder) WithContext(key string, value interface{}) *CLIErrorBuilder {
	if b.err.Context == nil {
		b.err.Context = make(map[string]interface{})
	}
	b.err.Context[key] = value
	return b
}

// Build finalizes the CLIError.
func (b *CLIErrorBuilder) Build() CLIError {
	return b.err
}

// ExitError signals the process exit code a failed command maps to. The
// CLI entry point unwraps it after the JSON error envelope has already
// been written, so the message is never printed a second time.
type ExitError struct {
	Code    int
	Message string
}

// NewExitError wraps an already-reported failure with its exit code.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func (e *ExitError) Error() string {
	return e.Message
}

// AppError wraps a CLIError so it can travel as a normal Go error while
// still carrying the structured fields the CLI output envelope needs.
type AppError struct {
	CLIError CLIError
}

// NewAppError wraps cliErr as an error.
func NewAppError(cliErr CLIError) *AppError {
	return &AppError{CLIError: cliErr}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.CLIError.Code, e.CLIError.Message)
}
