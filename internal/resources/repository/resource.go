package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	resourceserrors "campusbook/internal/resources/errors"
	"campusbook/pkg/config"
	mongotx "campusbook/pkg/db/mongo"
	"campusbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Resources"
)

type ResourceRepository interface {
	Create(ctx context.Context, res *model.Resource) error
	FindByID(ctx context.Context, id string) (*model.Resource, error)
	FindAll(ctx context.Context, filter model.ResourceFilter, limit int, offset int64) ([]*model.Resource, error)
	Count(ctx context.Context, filter model.ResourceFilter) (int64, error)
	Update(ctx context.Context, id string, res *model.Resource) error
	UpdateStatus(ctx context.Context, id string, status model.ResourceStatus) error
	Delete(ctx context.Context, id string) error
}

type mongoResourceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoResourceRepository(cfg *config.Config) ResourceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoResourceRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res.ID = ""
	res.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, res)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		res.ID = oid.Hex()
	}

	return nil
}

func (r *mongoResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", resourceserrors.ErrInvalidID, id)
	}

	var res model.Resource
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", resourceserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find resource: %w", err)
	}
	return &res, nil
}

func (r *mongoResourceRepository) FindAll(ctx context.Context, filter model.ResourceFilter, limit int, offset int64) ([]*model.Resource, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildResourceFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer cursor.Close(ctx)

	resources := []*model.Resource{}
	if err = cursor.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}

	return resources, nil
}

func (r *mongoResourceRepository) Count(ctx context.Context, filter model.ResourceFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildResourceFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return count, nil
}

func (r *mongoResourceRepository) Update(ctx context.Context, id string, res *model.Resource) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", resourceserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":        res.Name,
			"description": res.Description,
			"location":    res.Location,
			"category":    res.Category,
			"capacity":    res.Capacity,
			"facilities":  res.Facilities,
			"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", resourceserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoResourceRepository) UpdateStatus(ctx context.Context, id string, status model.ResourceStatus) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", resourceserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update resource status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", resourceserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoResourceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", resourceserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", resourceserrors.ErrNotFound, id)
	}

	return nil
}

func buildResourceFilter(filter model.ResourceFilter) bson.M {
	f := bson.M{}
	if filter.Kind != "" {
		f["kind"] = filter.Kind
	}
	if filter.Status != "" {
		f["status"] = filter.Status
	}
	return f
}
