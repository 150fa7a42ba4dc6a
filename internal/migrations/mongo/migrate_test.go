package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverRepositories(t *testing.T) {
	defs := Collections()
	for _, name := range []string{"Resources", "Reservations", "Reservation_locks"} {
		def, ok := defs[name]
		require.True(t, ok, "missing collection %s", name)
		assert.NotEmpty(t, def.Indexes, name)
		assert.Contains(t, def.Validator, "$jsonSchema", name)
	}
}

func TestReservationLocks_TTLIndex(t *testing.T) {
	require.Len(t, ReservationLocksIndexes, 1)
	opts := ReservationLocksIndexes[0].Options
	require.NotNil(t, opts)
	require.NotNil(t, opts.ExpireAfterSeconds)
	assert.Equal(t, int32(0), *opts.ExpireAfterSeconds)
	assert.Equal(t, bson.D{{Key: "expires_at", Value: 1}}, ReservationLocksIndexes[0].Keys)
}

func TestReservationsIndexes_LeadWithResource(t *testing.T) {
	keys, ok := ReservationsIndexes[0].Keys.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "resource_id", keys[0].Key)
	assert.Equal(t, "status", keys[1].Key)
	assert.Equal(t, "start_time", keys[2].Key)
}
