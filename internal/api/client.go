package api

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/dl-alexandre/mail/internal/logging"
	"github.com/dl-alexandre/mail/internal/types"
	"github.com/dl-alexandre/mail/internal/utils"
	"github.com/google/uuid"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// Client wraps the Gmail API with retry logic and request shaping
type Client struct {
	service    *gmail.Service
	maxRetries int
	retryDelay time.Duration
	logger     logging.Logger
}

// NewClient creates a new Gmail API client
func NewClient(service *gmail.Service, maxRetries int, retryDelayMs int, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Client{
		service:    service,
		maxRetries: maxRetries,
		retryDelay: time.Duration(retryDelayMs) * time.Millisecond,
		logger:     logger,
	}
}

// NewRequestContext creates a new request context with trace ID
func NewRequestContext(profile string, requestType types.RequestType) *types.RequestContext {
	return &types.RequestContext{
		Profile:            profile,
		InvolvedMessageIDs: []string{},
		InvolvedThreadIDs:  []string{},
		RequestType:        requestType,
		TraceID:            uuid.New().String(),
	}
}

// WithMessageIDs adds message IDs to the request context
func (c *Client) WithMessageIDs(ctx *types.RequestContext, messageIDs ...string) *types.RequestContext {
	ctx.InvolvedMessageIDs = append(ctx.InvolvedMessageIDs, messageIDs...)
	return ctx
}

// ExecuteWithRetry executes an API call with retry logic
func ExecuteWithRetry[T any](ctx context.Context, client *Client, reqCtx *types.RequestContext, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	logger := client.logger.WithTraceID(reqCtx.TraceID)
	logger.Info("API operation starting",
		logging.F("requestType", reqCtx.RequestType),
		logging.F("traceId", reqCtx.TraceID),
		logging.F("profile", reqCtx.Profile),
	)

	start := time.Now()

	for attempt := 0; attempt <= client.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying API operation",
				logging.F("attempt", attempt),
				logging.F("maxRetries", client.maxRetries),
			)
		}

		result, lastErr = fn()
		if lastErr == nil {
			duration := time.Since(start)
			logger.Info("API operation completed",
				logging.F("duration_ms", duration.Milliseconds()),
				logging.F("attempts", attempt+1),
			)
			return result, nil
		}

		if !isRetryable(lastErr) {
			duration := time.Since(start)
			logger.Error("API operation failed (non-retryable)",
				logging.F("duration_ms", duration.Milliseconds()),
				logging.F("error", lastErr.Error()),
				logging.F("attempts", attempt+1),
			)
			return result, classifyError(lastErr, reqCtx, client.logger)
		}

		if attempt < client.maxRetries {
			delay := calculateBackoff(client.retryDelay, attempt, lastErr)
			logger.Warn("API operation failed (retryable)",
				logging.F("attempt", attempt+1),
				logging.F("delay_ms", delay.Milliseconds()),
				logging.F("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	duration := time.Since(start)
	logger.Error("API operation failed after max retries",
		logging.F("duration_ms", duration.Milliseconds()),
		logging.F("attempts", client.maxRetries+1),
		logging.F("error", lastErr.Error()),
	)

	return result, classifyError(lastErr, reqCtx, client.logger)
}

// isRetryable checks if an error is retryable
func isRetryable(err error) bool {
	if apiErr, ok := err.(*googleapi.Error); ok {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

// calculateBackoff calculates the retry delay with exponential backoff
func calculateBackoff(baseDelay time.Duration, attempt int, err error) time.Duration {
	if apiErr, ok := err.(*googleapi.Error); ok {
		retryAfter := apiErr.Header.Get("Retry-After")
		if retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				delay := time.Duration(seconds) * time.Second
				if delay > time.Duration(utils.MaxRetryDelayMs)*time.Millisecond {
					return time.Duration(utils.MaxRetryDelayMs) * time.Millisecond
				}
				return delay
			}
		}
	}

	delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))

	if delay > time.Duration(utils.MaxRetryDelayMs)*time.Millisecond {
		delay = time.Duration(utils.MaxRetryDelayMs) * time.Millisecond
	}

	jitterRange := delay / 4
	jitter := time.Duration(rand.Int63n(int64(jitterRange*2))) - jitterRange
	delay = delay + jitter

	if delay < 0 {
		delay = baseDelay
	}

	return delay
}

// classifyError converts Gmail API errors to CLI errors
func classifyError(err error, reqCtx *types.RequestContext, logger logging.Logger) error {
	apiErr, ok := err.(*googleapi.Error)
	if !ok {
		logger.Error("Non-API error",
			logging.F("error", err.Error()),
			logging.F("traceId", reqCtx.TraceID),
		)
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeNetworkError, err.Error()).
			WithRetryable(true).
			WithContext("traceId", reqCtx.TraceID).
			Build())
	}

	var code string
	var retryable bool

	code = utils.ErrCodeUnknown
	switch apiErr.Code {
	case 400:
		code = utils.ErrCodeInvalidArgument
	case 401:
		code = utils.ErrCodeAuthExpired
	case 403:
		code = utils.ErrCodePermissionDenied
		for _, e := range apiErr.Errors {
			switch e.Reason {
			case "rateLimitExceeded", "userRateLimitExceeded":
				code = utils.ErrCodeRateLimited
				retryable = true
			case "dailyLimitExceeded":
				code = utils.ErrCodeRateLimited
			case "insufficientPermissions":
				code = utils.ErrCodePermissionDenied
			}
		}
	case 404:
		code = utils.ErrCodeMessageNotFound
	case 409:
		code = utils.ErrCodeInvalidArgument
	case 429:
		code = utils.ErrCodeRateLimited
		retryable = true
	case 500, 502, 503, 504:
		code = utils.ErrCodeNetworkError
		retryable = true
	default:
		code = utils.ErrCodeUnknown
		retryable = apiErr.Code >= 500
	}

	logger.Error("API error classified",
		logging.F("httpStatus", apiErr.Code),
		logging.F("errorCode", code),
		logging.F("retryable", retryable),
		logging.F("message", apiErr.Message),
		logging.F("traceId", reqCtx.TraceID),
	)

	builder := utils.NewCLIError(code, apiErr.Message).
		WithHTTPStatus(apiErr.Code).
		WithRetryable(retryable).
		WithContext("traceId", reqCtx.TraceID).
		WithContext("requestType", string(reqCtx.RequestType))

	if len(apiErr.Errors) > 0 {
		builder.WithGmailReason(apiErr.Errors[0].Reason)

		switch apiErr.Errors[0].Reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			builder.WithContext("suggestedAction", "wait before retrying")
		case "dailyLimitExceeded":
			builder.WithContext("suggestedAction", "quota will reset in 24 hours")
		case "insufficientPermissions":
			builder.WithContext("suggestedAction", "re-authenticate with the scopes this operation requires")
		}
	}

	switch code {
	case utils.ErrCodeAuthExpired:
		builder.WithContext("suggestedAction", "run 'mail auth login' to re-authenticate")
	case utils.ErrCodeMessageNotFound:
		builder.WithContext("suggestedAction", "verify the message or thread ID is correct and accessible")
	case utils.ErrCodeRateLimited:
		builder.WithContext("suggestedAction", "rate limit exceeded, retrying with backoff")
	}

	if apiErr.Code == 409 {
		builder.WithContext("conflict", true)
	}

	if apiErr.Code >= 500 && apiErr.Code <= 504 {
		builder.WithContext("serverError", true).
			WithContext("suggestedAction", "temporary server error, retrying")
	}

	return utils.NewAppError(builder.Build())
}

// Service returns the underlying Gmail service
func (c *Client) Service() *gmail.Service {
	return c.service
}
