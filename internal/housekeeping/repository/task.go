package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	housekeepingerrors "roomsync/internal/housekeeping/errors"
	"roomsync/pkg/config"
	mongotx "roomsync/pkg/db/mongo"
	"roomsync/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Housekeeping_tasks"
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.HousekeepingTask) error
	FindByID(ctx context.Context, id string) (*model.HousekeepingTask, error)
	Find(ctx context.Context, filter model.TaskFilter) ([]*model.HousekeepingTask, error)
	Update(ctx context.Context, task *model.HousekeepingTask) error
}

var activeStatuses = []model.TaskStatus{model.TaskPending, model.TaskInProgress}

type mongoTaskRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTaskRepository(cfg *config.Config) TaskRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTaskRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTaskRepository) Create(ctx context.Context, task *model.HousekeepingTask) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	task.UpdatedAt = task.CreatedAt
	result, err := r.collection.InsertOne(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to create housekeeping task: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		task.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTaskRepository) FindByID(ctx context.Context, id string) (*model.HousekeepingTask, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", housekeepingerrors.ErrInvalidID, id)
	}

	var task model.HousekeepingTask
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, housekeepingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find housekeeping task: %w", err)
	}
	return &task, nil
}

func (r *mongoTaskRepository) Find(ctx context.Context, filter model.TaskFilter) ([]*model.HousekeepingTask, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := bson.M{}
	if filter.RoomID != "" {
		query["room_id"] = filter.RoomID
	}
	switch {
	case filter.ActiveOnly:
		query["status"] = bson.M{"$in": activeStatuses}
	case len(filter.Statuses) > 0:
		query["status"] = bson.M{"$in": filter.Statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find housekeeping tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*model.HousekeepingTask
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode housekeeping tasks: %w", err)
	}
	return tasks, nil
}

func (r *mongoTaskRepository) Update(ctx context.Context, task *model.HousekeepingTask) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(task.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", housekeepingerrors.ErrInvalidID, task.ID)
	}

	task.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"status":       task.Status,
			"priority":     task.Priority,
			"score":        task.Score,
			"notes":        task.Notes,
			"started_at":   task.StartedAt,
			"completed_at": task.CompletedAt,
			"verified_at":  task.VerifiedAt,
			"updated_at":   task.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update housekeeping task: %w", err)
	}
	if result.MatchedCount == 0 {
		return housekeepingerrors.ErrNotFound
	}
	return nil
}
