// Package mongostore is the MongoDB comments backend.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/comments"
	"github.com/starford/folio/internal/models"
)

type like struct {
	CommentID string    `bson:"comment_id"`
	Requester string    `bson:"requester"`
	CreatedAt time.Time `bson:"created_at"`
}

type report struct {
	ID        string    `bson:"_id"`
	CommentID string    `bson:"comment_id"`
	Requester string    `bson:"requester"`
	Reason    string    `bson:"reason"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store is a comments.Backend over MongoDB.
type Store struct {
	client   *mongo.Client
	comments *mongo.Collection
	likes    *mongo.Collection
	reports  *mongo.Collection
}

var _ comments.Backend = (*Store)(nil)

// Connect dials uri, verifies the connection and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10*time.Second).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	s := New(client, client.Database(database))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ensure indexes: %w", err)
	}
	return s, nil
}

// New wraps an existing database. Close disconnects client when non-nil.
func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:   client,
		comments: db.Collection("comments"),
		likes:    db.Collection("comment_likes"),
		reports:  db.Collection("comment_reports"),
	}
}

// EnsureIndexes creates the listing and uniqueness indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "post_slug", Value: 1}, {Key: "is_approved", Value: 1}, {Key: "is_deleted", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_comments_post"),
		},
	}); err != nil {
		return err
	}
	if _, err := s.likes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "comment_id", Value: 1}, {Key: "requester", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_likes_requester"),
	}); err != nil {
		return err
	}
	_, err := s.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "comment_id", Value: 1}, {Key: "requester", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_reports_requester"),
	})
	return err
}

// Close disconnects the client.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) ListApproved(ctx context.Context, postSlug string) ([]models.Comment, error) {
	return s.find(ctx, bson.M{"post_slug": postSlug, "is_approved": true, "is_deleted": false})
}

func (s *Store) ListPending(ctx context.Context) ([]models.Comment, error) {
	return s.find(ctx, bson.M{"is_approved": false, "is_deleted": false})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Comment, error) {
	cur, err := s.comments.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongostore: find: %w", err)
	}
	out := []models.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongostore: decode: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := s.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("comment %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: get: %w", err)
	}
	return &c, nil
}

func (s *Store) Insert(ctx context.Context, in comments.NewComment) (string, error) {
	c := models.Comment{
		ID:          uuid.NewString(),
		PostSlug:    in.PostSlug,
		AuthorName:  in.AuthorName,
		AuthorEmail: in.AuthorEmail,
		Content:     in.Content,
		CreatedAt:   time.Now().UTC(),
		ReplyTo:     in.ReplyTo,
		SystemType:  models.SystemMongo,
	}
	if _, err := s.comments.InsertOne(ctx, c); err != nil {
		return "", fmt.Errorf("mongostore: insert: %w", err)
	}
	return c.ID, nil
}

func (s *Store) Approve(ctx context.Context, id string) error {
	return s.set(ctx, bson.M{"_id": id, "is_deleted": false}, bson.M{"is_approved": true}, id)
}

func (s *Store) SoftDelete(ctx context.Context, id string) error {
	return s.set(ctx, bson.M{"_id": id}, bson.M{"is_deleted": true}, id)
}

func (s *Store) set(ctx context.Context, filter, fields bson.M, id string) error {
	res, err := s.comments.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("mongostore: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("comment %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *Store) ToggleLike(ctx context.Context, id, requester string) (bool, int, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, 0, err
	}

	key := bson.M{"comment_id": id, "requester": requester}
	del, err := s.likes.DeleteOne(ctx, key)
	if err != nil {
		return false, 0, fmt.Errorf("mongostore: unlike: %w", err)
	}
	liked, delta := false, -1
	if del.DeletedCount == 0 {
		_, err := s.likes.InsertOne(ctx, like{CommentID: id, Requester: requester, CreatedAt: time.Now().UTC()})
		switch {
		case mongo.IsDuplicateKeyError(err):
			// A concurrent request from the same requester won; nothing to count.
			liked, delta = true, 0
		case err != nil:
			return false, 0, fmt.Errorf("mongostore: like: %w", err)
		default:
			liked, delta = true, 1
		}
	}

	var c models.Comment
	err = s.comments.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"likes_count": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return false, 0, fmt.Errorf("mongostore: count likes: %w", err)
	}
	return liked, c.LikesCount, nil
}

func (s *Store) Report(ctx context.Context, id, requester, reason string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	_, err := s.reports.InsertOne(ctx, report{
		ID:        uuid.NewString(),
		CommentID: id,
		Requester: requester,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("mongostore: report: %w", err)
	}
	return nil
}
