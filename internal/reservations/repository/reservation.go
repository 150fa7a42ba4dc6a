package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationserrors "campusbook/internal/reservations/errors"
	"campusbook/pkg/config"
	mongotx "campusbook/pkg/db/mongo"
	"campusbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reservations"
)

// StatusChange describes a conditional transition: it applies only while
// the stored status still equals From.
type StatusChange struct {
	From            model.ReservationStatus
	To              model.ReservationStatus
	RejectionReason string
	DecidedBy       string
	At              time.Time
}

// FieldPatch lists the editable fields of an active reservation. Only
// non-nil fields are written.
type FieldPatch struct {
	StartTime *time.Time
	EndTime   *time.Time
	Purpose   *string
	Attendees *int
}

type ReservationRepository interface {
	Insert(ctx context.Context, r *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	// ListActive returns pending and approved reservations of one resource,
	// ordered by start time then id. A non-nil window keeps only those
	// intersecting it; excludeID drops one reservation from the result.
	ListActive(ctx context.Context, resourceID string, excludeID string, window *model.Interval) ([]*model.Reservation, error)
	Find(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error)
	Count(ctx context.Context, filter model.ReservationFilter) (int64, error)
	CountActive(ctx context.Context, resourceID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, change StatusChange) (*model.Reservation, error)
	// UpdateFields applies patch while the reservation is still active and
	// returns the stored result.
	UpdateFields(ctx context.Context, id string, patch FieldPatch, at time.Time) (*model.Reservation, error)
	ListEnded(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoReservationRepository) Insert(ctx context.Context, res *model.Reservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res.ID = ""
	result, err := r.collection.InsertOne(ctx, res)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		res.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var res model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &res, nil
}

func (r *mongoReservationRepository) ListActive(
	ctx context.Context,
	resourceID string,
	excludeID string,
	window *model.Interval,
) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"resource_id": resourceID,
		"status":      bson.M{"$in": model.ActiveReservationStatuses},
	}
	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}
	if window != nil {
		filter["start_time"] = bson.M{"$lt": window.End}
		filter["end_time"] = bson.M{"$gt": window.Start}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoReservationRepository) Find(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	return r.find(ctx, buildSearchFilter(filter), opts)
}

func (r *mongoReservationRepository) Count(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) CountActive(ctx context.Context, resourceID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"resource_id": resourceID,
		"status":      bson.M{"$in": model.ActiveReservationStatuses},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count active reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) UpdateStatus(ctx context.Context, id string, change StatusChange) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":     change.To,
		"updated_at": change.At,
	}
	if change.DecidedBy != "" {
		set["decided_by"] = change.DecidedBy
	}
	update := bson.M{"$set": set}
	if change.RejectionReason != "" {
		set["rejection_reason"] = change.RejectionReason
	} else {
		update["$unset"] = bson.M{"rejection_reason": ""}
	}

	filter := bson.M{"_id": objectID, "status": change.From}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Reservation
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update reservation status: %w", err)
	}

	// Nothing matched: either the reservation is gone or it left From.
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, fmt.Errorf("failed to check reservation existence: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
	}
	return nil, fmt.Errorf("%w: %s", reservationserrors.ErrStatusChanged, id)
}

func (r *mongoReservationRepository) UpdateFields(ctx context.Context, id string, patch FieldPatch, at time.Time) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": model.ActiveReservationStatuses},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Reservation
	err = r.collection.FindOneAndUpdate(ctx, filter, buildFieldUpdate(patch, at), opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrStatusChanged, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}
	return &updated, nil
}

// buildFieldUpdate sets the patched fields and updated_at, nothing else.
func buildFieldUpdate(patch FieldPatch, at time.Time) bson.M {
	set := bson.M{"updated_at": at}
	if patch.StartTime != nil {
		set["start_time"] = *patch.StartTime
	}
	if patch.EndTime != nil {
		set["end_time"] = *patch.EndTime
	}
	if patch.Purpose != nil {
		set["purpose"] = *patch.Purpose
	}
	if patch.Attendees != nil {
		set["attendees"] = *patch.Attendees
	}
	return bson.M{"$set": set}
}

func (r *mongoReservationRepository) ListEnded(ctx context.Context, now time.Time, limit int) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":   model.ReservationStatusApproved,
		"end_time": bson.M{"$lte": now},
	}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "end_time", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoReservationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Reservation, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := []*model.Reservation{}
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

// buildSearchFilter maps a listing filter to a query. From/To select
// reservations intersecting [From, To).
func buildSearchFilter(filter model.ReservationFilter) bson.M {
	f := bson.M{}
	if filter.ResourceID != "" {
		f["resource_id"] = filter.ResourceID
	}
	if filter.RequesterID != "" {
		f["requester_id"] = filter.RequesterID
	}
	if filter.Status != "" {
		f["status"] = filter.Status
	}
	if filter.To != nil {
		f["start_time"] = bson.M{"$lt": *filter.To}
	}
	if filter.From != nil {
		f["end_time"] = bson.M{"$gt": *filter.From}
	}
	return f
}
