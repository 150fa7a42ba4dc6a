package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	writeConflictCode = 112

	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

// IsTransient reports whether err is worth retrying as a whole unit of work:
// transaction labels, write conflicts and network timeouts. Context
// cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		if labeled.HasErrorLabel(labelTransientTransaction) ||
			labeled.HasErrorLabel(labelUnknownCommitResult) {
			return true
		}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflictCode {
		return true
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == writeConflictCode {
				return true
			}
		}
	}

	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
