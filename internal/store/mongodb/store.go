// Package mongodb implements book.Store on a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"bookcatalog/internal/book"
)

var _ book.Store = &Store{}

// Options configures Connect.
type Options struct {
	URI                    string
	Database               string
	Collection             string
	ServerSelectionTimeout time.Duration
}

// Store is a book.Store backed by a single collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// document is the stored shape of a book.
type document struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Author        string             `bson:"author"`
	PublishedYear int                `bson:"publishedYear"`
	Available     bool               `bson:"available"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d document) toBook() book.Book {
	return book.Book{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Author:        d.Author,
		PublishedYear: d.PublishedYear,
		Available:     d.Available,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Connect makes a single connection attempt. It fails once no server is
// selectable within opts.ServerSelectionTimeout, then creates the unique
// title index.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(opts.ServerSelectionTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: create title index: %w", withCode(err))
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	now := s.now()
	doc := document{
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
		Available:     b.Available,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return book.Book{}, withCode(err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return book.Book{}, fmt.Errorf("mongo: unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toBook(), nil
}

func (s *Store) FindAll(ctx context.Context) ([]book.Book, error) {
	return s.find(ctx, bson.D{})
}

func (s *Store) FindByID(ctx context.Context, id string) (book.Book, error) {
	oid, err := objectID(id)
	if err != nil {
		return book.Book{}, err
	}
	var doc document
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return book.Book{}, notFoundOr(err)
	}
	return doc.toBook(), nil
}

func (s *Store) FindByTitle(ctx context.Context, title string) ([]book.Book, error) {
	return s.find(ctx, bson.D{{Key: "title", Value: title}})
}

func (s *Store) UpdateByID(ctx context.Context, id string, u book.Update) (book.Book, error) {
	oid, err := objectID(id)
	if err != nil {
		return book.Book{}, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc document
	err = s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, updateDoc(u, s.now()), opts).Decode(&doc)
	if err != nil {
		return book.Book{}, notFoundOr(err)
	}
	return doc.toBook(), nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) (book.Book, error) {
	oid, err := objectID(id)
	if err != nil {
		return book.Book{}, err
	}
	var doc document
	if err := s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return book.Book{}, notFoundOr(err)
	}
	return doc.toBook(), nil
}

func (s *Store) find(ctx context.Context, filter bson.D) ([]book.Book, error) {
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, withCode(err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, withCode(err)
	}
	out := make([]book.Book, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBook())
	}
	return out, nil
}

// updateDoc builds a $set of the fields present in u. updatedAt is always set.
func updateDoc(u book.Update, now time.Time) bson.D {
	set := bson.D{}
	if u.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *u.Title})
	}
	if u.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *u.Author})
	}
	if u.PublishedYear != nil {
		set = append(set, bson.E{Key: "publishedYear", Value: *u.PublishedYear})
	}
	if u.Available != nil {
		set = append(set, bson.E{Key: "available", Value: *u.Available})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: now})
	return bson.D{{Key: "$set", Value: set}}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("cast to ObjectId failed for value %q: %w", id, err)
	}
	return oid, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return book.ErrNotFound
	}
	return withCode(err)
}

// withCode attaches the server error code, if any, to err. Duplicate key
// errors also wrap book.ErrDuplicateTitle.
func withCode(err error) error {
	code, ok := serverCode(err)
	if !ok {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		err = fmt.Errorf("%w: %v", book.ErrDuplicateTitle, err)
	}
	return &book.StorageError{Code: code, Err: err}
}

func serverCode(err error) (int, bool) {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code != 0 {
				return e.Code, true
			}
		}
		if we.WriteConcernError != nil && we.WriteConcernError.Code != 0 {
			return we.WriteConcernError.Code, true
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code != 0 {
		return int(ce.Code), true
	}
	return 0, false
}
