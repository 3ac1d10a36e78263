// internal/store/mongo.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/models"
)

const mongoOpTimeout = 5 * time.Second

// MongoStore persists one lobby document per session in a "lobbies"
// collection. Compare-and-swap is a ReplaceOne filtered on both _id and the
// expected version; a miss with the document present means a lost race.
// Change notifications are fanned out in-process after each successful write.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	n      *notifier
	logger *logrus.Logger
}

// NewMongoStore connects and pings the deployment. A failed ping is returned
// to the caller, which treats it as the capability probe failing and runs on
// the in-memory fallback instead.
func NewMongoStore(ctx context.Context, uri, dbName string, logger *logrus.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection("lobbies"),
		n:      newNotifier(),
		logger: logger,
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var lob models.Lobby
	err := s.coll.FindOne(ctx, bson.M{"_id": lobbyID}).Decode(&lob)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &lob, nil
}

func (s *MongoStore) Create(ctx context.Context, lobby *models.Lobby) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	_, err := s.coll.InsertOne(ctx, lobby)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.n.notify(lobby)
	return nil
}

func (s *MongoStore) CompareAndSwap(ctx context.Context, lobbyID string, expectedVersion int64, lobby *models.Lobby) error {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	next := lobby.Clone()
	next.Version = expectedVersion + 1

	res, err := s.coll.ReplaceOne(opCtx, bson.M{"_id": lobbyID, "version": expectedVersion}, next)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		// Either the document moved on or it never existed.
		if _, getErr := s.Get(ctx, lobbyID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}

	lobby.Version = next.Version
	s.n.notify(next)
	return nil
}

func (s *MongoStore) Subscribe(lobbyID string, fn func(*models.Lobby)) func() {
	return s.n.subscribe(lobbyID, fn)
}

func (s *MongoStore) ListAvailable(ctx context.Context, category string) ([]*models.Lobby, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	filter := bson.M{"status": models.StatusWaitingForPlayers}
	if category != "" {
		filter["category"] = category
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer cur.Close(ctx)

	var out []*models.Lobby
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
