package sequence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mongotx "roomsync/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Counters"

// Width is the zero padding applied to generated numbers.
const Width = 6

// Generator hands out monotonic, prefixed numbers such as RES-000042.
type Generator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

var ErrEmptyPrefix = errors.New("sequence prefix must not be empty")

func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, Width, n)
}

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

type mongoGenerator struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongo returns a Generator persisted in the Counters collection, one
// document per prefix.
func NewMongo(db *mongo.Database, timeout time.Duration) Generator {
	return &mongoGenerator{collection: db.Collection(CollectionName), timeout: timeout}
}

func (g *mongoGenerator) Next(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", ErrEmptyPrefix
	}
	ctx, cancel := mongotx.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := g.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": prefix},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return "", fmt.Errorf("failed to increment sequence %s: %w", prefix, err)
	}
	return Format(prefix, c.Seq), nil
}

type memoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemory() Generator {
	return &memoryGenerator{counters: make(map[string]int64)}
}

func (g *memoryGenerator) Next(_ context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", ErrEmptyPrefix
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix]++
	return Format(prefix, g.counters[prefix]), nil
}
