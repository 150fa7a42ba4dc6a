package mongo

import (
	"context"
	"fmt"

	apperrors "campusbook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type txManager struct {
	client *mongo.Client
	opts   *options.TransactionOptions
}

// NewTransactionManager runs callbacks in snapshot/majority transactions so a
// read-then-write inside fn sees one consistent view. The driver retries fn
// on TransientTransactionError labels.
func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &txManager{
		client: client,
		opts: options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.Majority()),
	}
}

func (m *txManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	err := m.client.UseSession(ctx, func(sc mongo.SessionContext) error {
		_, err := sc.WithTransaction(sc, func(tx mongo.SessionContext) (any, error) {
			return nil, fn(tx)
		}, m.opts)
		return err
	})

	// Domain errors from fn pass through untouched for the HTTP layer.
	if err == nil || apperrors.IsAppError(err) {
		return err
	}
	return fmt.Errorf("mongo transaction: %w", err)
}
