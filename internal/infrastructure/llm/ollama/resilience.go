package ollama

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/counsel-assistant/internal/infrastructure/resilience"
)

// Operation names as seen by the resilience executor and its metrics.
const (
	OperationEmbed    = "ollama.embed"
	OperationGenerate = "ollama.generate"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	return resilience.Classify(err,
		resilience.Transient(func(err error) bool {
			var statusErr *HTTPStatusError
			return errors.As(err, &statusErr) && isRetryableHTTPStatus(statusErr.StatusCode)
		}),
		resilience.Rejected(func(err error) bool {
			var statusErr *HTTPStatusError
			return errors.As(err, &statusErr)
		}),
		resilience.Transient(func(err error) bool {
			var netErr net.Error
			return errors.As(err, &netErr)
		}),
	)
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
