package repository

import (
	"context"
	"fmt"
	"time"

	reservationserrors "campusbook/internal/reservations/errors"
	"campusbook/pkg/config"
	mongotx "campusbook/pkg/db/mongo"
	"campusbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Reservation_locks"
)

// ReservationLocker serialises check-and-write per resource. TryAcquire
// makes one attempt and returns ErrLockHeld when another owner holds the
// lock; Release only removes a lock the caller owns.
type ReservationLocker interface {
	TryAcquire(ctx context.Context, resourceID string, owner string, ttl time.Duration) error
	Release(ctx context.Context, resourceID string, owner string) error
}

func LockKey(resourceID string) string {
	return fmt.Sprintf("reservation_lock_%s", resourceID)
}

type mongoReservationLocker struct {
	cfg        *config.Config
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoReservationLocker stores one document per held lock. The TTL
// index on expires_at reaps locks of crashed holders; an expired lock that
// the TTL monitor has not removed yet is taken over on acquire.
func NewMongoReservationLocker(cfg *config.Config) ReservationLocker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLocker{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
		now:        time.Now,
	}
}

func (l *mongoReservationLocker) TryAcquire(ctx context.Context, resourceID string, owner string, ttl time.Duration) error {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	now := l.now().UTC()
	lock := &model.ReservationLock{
		ID:        LockKey(resourceID),
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := l.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongotx.IsDuplicateKey(err) {
		return fmt.Errorf("failed to acquire reservation lock: %w", err)
	}

	res, err := l.collection.DeleteOne(ctx, bson.M{
		"_id":        lock.ID,
		"expires_at": bson.M{"$lte": now},
	})
	if err != nil {
		return fmt.Errorf("failed to clear expired reservation lock: %w", err)
	}
	if res.DeletedCount == 0 {
		return reservationserrors.ErrLockHeld
	}

	if _, err := l.collection.InsertOne(ctx, lock); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return reservationserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire reservation lock: %w", err)
	}
	return nil
}

func (l *mongoReservationLocker) Release(ctx context.Context, resourceID string, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()

	res, err := l.collection.DeleteOne(ctx, bson.M{"_id": LockKey(resourceID), "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release reservation lock: %w", err)
	}
	if res.DeletedCount == 0 {
		return reservationserrors.ErrLockNotOwned
	}
	return nil
}
