package qdrant

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kirillkom/counsel-assistant/internal/infrastructure/resilience"
)

// StatusError is a non-2xx answer from the Qdrant REST API.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.Operation, e.Status, e.Body)
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	return resilience.Classify(err,
		resilience.Transient(func(err error) bool {
			var statusErr *StatusError
			return errors.As(err, &statusErr) &&
				(statusErr.StatusCode >= http.StatusInternalServerError || statusErr.StatusCode == http.StatusTooManyRequests)
		}),
		resilience.Rejected(func(err error) bool {
			var statusErr *StatusError
			return errors.As(err, &statusErr)
		}),
		resilience.Transient(func(err error) bool {
			var netErr net.Error
			return errors.As(err, &netErr)
		}),
	)
}
