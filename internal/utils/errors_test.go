package utils

import (
	"testing"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeAuthRequired, ExitNotAuthorized},
		{ErrCodeMessageNotFound, ExitNotFound},
		{ErrCodePermissionDenied, ExitNotAuthorized},
		{ErrCodeQuotaExceeded, ExitTransientError},
		{ErrCodeRateLimited, ExitTransientError},
		{ErrCodeWorkflowExpired, ExitTokenExpired},
		{ErrCodeStyleViolation, ExitValidationFailed},
		{ErrCodeInvalidArgument, ExitUsageError},
		{"UNKNOWN_CODE", ExitUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := GetExitCode(tt.code)
			if got != tt.expected {
				t.Errorf("GetExitCode(%s) = %d, want %d", tt.code, got, tt.expected)
			}
		})
	}
}

func TestNewCLIError(t *testing.T) {
	err := NewCLIError(ErrCodeMessageNotFound, "Message not found").
		WithHTTPStatus(404).
		WithGmailReason("notFound").
		WithRetryable(false).
		WithContext("messageId", "abc123").
		Build()

	if err.Code != ErrCodeMessageNotFound {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeMessageNotFound)
	}
	if err.HTTPStatus != 404 {
		t.Errorf("HTTPStatus = %d, want 404", err.HTTPStatus)
	}
	if err.GmailReason != "notFound" {
		t.Errorf("GmailReason = %s, want notFound", err.GmailReason)
	}
	if err.Retryable {
		t.Error("Retryable should be false")
	}
	if err.Context["messageId"] != "abc123" {
		t.Errorf("Context[messageId] = %v, want abc123", err.Context["messageId"])
	}
}

func TestAppError(t *testing.T) {
	cliErr := NewCLIError(ErrCodeMessageNotFound, "test message").Build()
	appErr := NewAppError(cliErr)

	expected := "MESSAGE_NOT_FOUND: test message"
	if appErr.Error() != expected {
		t.Errorf("Error() = %s, want %s", appErr.Error(), expected)
	}
}
