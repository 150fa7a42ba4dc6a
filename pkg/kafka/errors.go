package kafka

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
)

type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeTransient
	ErrorTypePermanent
)

var errorTypeNames = [...]string{"unknown", "transient", "permanent"}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return errorTypeNames[ErrorTypeUnknown]
	}
	return errorTypeNames[t]
}

// Substrings of dial and socket failures that kafka-go surfaces without a
// typed error.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
}

// ClassifyError buckets a publish failure. Broker error codes and net errors
// are checked by type; anything else falls back to message matching.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	switch {
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrEmptyValue), errors.Is(err, ErrProducerClosed):
		return ErrorTypePermanent
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTransient
	}

	var brokerErr kafka.Error
	if errors.As(err, &brokerErr) {
		if brokerErr.Temporary() || brokerErr.Timeout() {
			return ErrorTypeTransient
		}
		return ErrorTypePermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTransient
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return ErrorTypeTransient
		}
	}
	return ErrorTypePermanent
}
