package resilience

import (
	"context"
	"errors"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Rule classifies errors it recognizes and reports false for the rest.
type Rule func(err error) (ErrorClassification, bool)

var (
	classTransient = ErrorClassification{Retryable: true, RecordFailure: true}
	classPermanent = ErrorClassification{Retryable: false, RecordFailure: true}
	classIgnored   = ErrorClassification{}
)

// Classify applies the shared handling of cancellation and open circuits,
// then the dependency-specific rules in order. Unrecognized errors are
// permanent failures.
func Classify(err error, rules ...Rule) ErrorClassification {
	if err == nil {
		return classIgnored
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return classIgnored
	}
	if IsCircuitOpen(err) {
		return classTransient
	}
	for _, rule := range rules {
		if class, ok := rule(err); ok {
			return class
		}
	}
	return classPermanent
}

// Transient marks errors matching match as retryable failures.
func Transient(match func(error) bool) Rule {
	return func(err error) (ErrorClassification, bool) {
		if match(err) {
			return classTransient, true
		}
		return ErrorClassification{}, false
	}
}

// Rejected marks errors matching match as permanent without counting them
// against the breaker, e.g. a 4xx caused by the request itself.
func Rejected(match func(error) bool) Rule {
	return func(err error) (ErrorClassification, bool) {
		if match(err) {
			return classIgnored, true
		}
		return ErrorClassification{}, false
	}
}

// WrapTemporary tags retryable failures with domain.ErrTemporary so the
// HTTP layer answers 503 instead of 500.
func WrapTemporary(operation string, err error, classifier ErrorClassifier) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifier == nil {
		classifier = defaultClassifier
	}
	if classifier(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func defaultClassifier(err error) ErrorClassification {
	return Classify(err)
}
