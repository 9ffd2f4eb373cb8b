package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/seokit/pkg/subscription"
)

const (
	CollectionName = "tool_results"
	DefaultLimit   = 50
	MaxLimit       = 200
)

var (
	ErrNotFound      = errors.New("history entry not found")
	ErrInvalidEntry  = errors.New("invalid history entry")
	ErrStorageFailed = errors.New("history storage failed")
)

// Entry is a saved tool result.
type Entry struct {
	ID        uuid.UUID             `json:"id"`
	UserID    uuid.UUID             `json:"user_id"`
	Resource  subscription.Resource `json:"resource"`
	Input     json.RawMessage       `json:"input"`
	Output    json.RawMessage       `json:"output"`
	CreatedAt time.Time             `json:"created_at"`
}

// document is the stored form of Entry. JSON bodies are kept as text so
// arbitrary tool output round-trips unchanged.
type document struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Resource  string    `bson:"resource"`
	Input     string    `bson:"input"`
	Output    string    `bson:"output"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDocument(e Entry) document {
	return document{
		ID:        e.ID.String(),
		UserID:    e.UserID.String(),
		Resource:  string(e.Resource),
		Input:     string(e.Input),
		Output:    string(e.Output),
		CreatedAt: e.CreatedAt.UTC(),
	}
}

func (d document) entry() (Entry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return Entry{}, errors.Join(ErrInvalidEntry, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return Entry{}, errors.Join(ErrInvalidEntry, err)
	}
	return Entry{
		ID:        id,
		UserID:    userID,
		Resource:  subscription.Resource(d.Resource),
		Input:     json.RawMessage(d.Input),
		Output:    json.RawMessage(d.Output),
		CreatedAt: d.CreatedAt,
	}, nil
}

// Repository stores tool results in MongoDB.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewRepository uses the tool_results collection of db.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		coll: db.Collection(CollectionName),
		now:  time.Now,
	}
}

// EnsureIndexes creates the index backing per-user, per-tool listing.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "resource", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// Save stores a new entry and returns it with ID and CreatedAt filled in.
func (r *Repository) Save(ctx context.Context, userID uuid.UUID, res subscription.Resource, input, output json.RawMessage) (Entry, error) {
	if userID == uuid.Nil || !res.Valid() {
		return Entry{}, ErrInvalidEntry
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	if len(output) == 0 {
		output = json.RawMessage("null")
	}

	e := Entry{
		ID:        uuid.New(),
		UserID:    userID,
		Resource:  res,
		Input:     input,
		Output:    output,
		CreatedAt: r.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, toDocument(e)); err != nil {
		return Entry{}, errors.Join(ErrStorageFailed, err)
	}
	return e, nil
}

// ListByTool returns the user's entries for res, newest first.
// A non-positive limit means DefaultLimit; limits above MaxLimit are capped.
func (r *Repository) ListByTool(ctx context.Context, userID uuid.UUID, res subscription.Resource, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	cur, err := r.coll.Find(ctx,
		bson.D{{Key: "user_id", Value: userID.String()}, {Key: "resource", Value: string(res)}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		e, err := d.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Delete removes entry id if it belongs to userID.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "user_id", Value: userID.String()},
	})
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
