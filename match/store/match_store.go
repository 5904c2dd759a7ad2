// match/store/match_store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cs2stats/stats-services/shared/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrMatchNotFound is returned by Get when no document has the requested id.
var ErrMatchNotFound = errors.New("match not found")

// MatchStore is the MongoDB data store for match documents.
type MatchStore struct {
	collection *mongo.Collection
	newID      func() (string, error)
}

// NewMatchStore creates a new MatchStore over the given collection.
// Ids are 21-character nanoids generated at insert time.
func NewMatchStore(collection *mongo.Collection) *MatchStore {
	return &MatchStore{
		collection: collection,
		newID:      func() (string, error) { return gonanoid.New() },
	}
}

// List returns every match, newest first. An empty collection yields an empty, non-nil slice.
func (ms *MatchStore) List(ctx context.Context) ([]models.Match, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := ms.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer cursor.Close(ctx)

	matches := make([]models.Match, 0)
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}
	return matches, nil
}

// Get retrieves a match by id. Returns ErrMatchNotFound if it does not exist.
func (ms *MatchStore) Get(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	err := ms.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&match)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return &match, nil
}

// Insert assigns a fresh id to the match, stores it and returns the id.
func (ms *MatchStore) Insert(ctx context.Context, match *models.Match) (string, error) {
	id, err := ms.newID()
	if err != nil {
		return "", fmt.Errorf("failed to generate match id: %w", err)
	}
	match.ID = id

	if _, err := ms.collection.InsertOne(ctx, match); err != nil {
		return "", fmt.Errorf("failed to insert match %s: %w", id, err)
	}
	return id, nil
}

// Delete removes the match with the given id. Deleting a missing id is not an error.
func (ms *MatchStore) Delete(ctx context.Context, id string) error {
	if _, err := ms.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	return nil
}
