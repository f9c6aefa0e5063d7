package llm

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// StatusError carries a raw HTTP status from providers without a typed
// SDK error.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model endpoint returned status %d: %s", e.Code, e.Body)
}

// IsRateLimit reports whether err is an HTTP 429 from any provider.
func IsRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var st *StatusError
	if errors.As(err, &st) {
		return st.Code == http.StatusTooManyRequests
	}
	return false
}
