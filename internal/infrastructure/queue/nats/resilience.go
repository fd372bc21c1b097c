package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/counsel-assistant/internal/infrastructure/resilience"
)

const operationPublish = "nats.publish"

func classifyNATSError(err error) resilience.ErrorClassification {
	return resilience.Classify(err, resilience.Transient(isConnectionError))
}

func isConnectionError(err error) bool {
	return errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionReconnecting)
}
