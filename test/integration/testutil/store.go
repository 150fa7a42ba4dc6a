//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ResourcesCollection        = "Resources"
	ReservationsCollection     = "Reservations"
	ReservationLocksCollection = "Reservation_locks"

	opTimeout = 5 * time.Second
)

// Store gives tests direct access to the service database.
type Store struct {
	db *mongo.Database
}

// OpenStore connects and pings; the connection is closed when t finishes.
func OpenStore(t *testing.T, uri, dbName string) *Store {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*opTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err, "connect to mongo")
	require.NoError(t, client.Ping(ctx, nil), "ping mongo")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("mongo disconnect: %v", err)
		}
	})

	return &Store{db: client.Database(dbName)}
}

// Reset deletes every document but leaves collections in place, so the
// validators and indexes created by the migrate job are kept.
func (s *Store) Reset(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	for _, name := range []string{ReservationLocksCollection, ReservationsCollection, ResourcesCollection} {
		_, err := s.db.Collection(name).DeleteMany(ctx, bson.M{})
		require.NoError(t, err, "clear %s", name)
	}
}

func (s *Store) Count(t *testing.T, collection string, filter bson.M) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	n, err := s.db.Collection(collection).CountDocuments(ctx, filter)
	require.NoError(t, err, "count %s", collection)
	return n
}
