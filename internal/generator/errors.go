package generator

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Retryable reports whether a provider error may succeed on another attempt:
// throttling, server errors, timeouts and transport failures are retried,
// client errors and caller cancellation are not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return retryableStatus(gErr.Code)
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) {
		return retryableStatus(gErrPtr.Code)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
