package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AccountStore is the pair of writes the deletion spans. DeleteUser must
// report ErrNotFound when the user does not exist.
type AccountStore interface {
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	DeletePostsByOwner(ctx context.Context, id primitive.ObjectID) error
}

// TxRunner executes fn inside a single atomic unit: a non-nil error from fn
// aborts with nothing persisted.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountDeleter removes a user together with every post that user owns.
// This is the only multi-document write in the application; everything else
// relies on single-document updates.
type AccountDeleter struct {
	store AccountStore
	tx    TxRunner
	log   *zap.Logger
}

func NewAccountDeleter(db *mongo.Database, client *mongo.Client, log *zap.Logger) *AccountDeleter {
	return &AccountDeleter{
		store: &mongoAccountStore{
			users: db.Collection("users"),
			posts: db.Collection("posts"),
		},
		tx:  &mongoTxRunner{client: client},
		log: log,
	}
}

// DeleteAccount deletes the user and all of their posts atomically. A missing
// user aborts with ErrNotFound and no post deletions attempted; any storage
// failure aborts with ErrTransactionFailure and a full rollback.
func (d *AccountDeleter) DeleteAccount(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	err = d.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := d.store.DeleteUser(ctx, oid); err != nil {
			return err
		}
		return d.store.DeletePostsByOwner(ctx, oid)
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		d.log.Error("account deletion aborted", zap.String("userId", id), zap.Error(err))
		return ErrTransactionFailure
	}
	d.log.Info("user and associated posts deleted", zap.String("userId", id))
	return nil
}

type mongoAccountStore struct {
	users *mongo.Collection
	posts *mongo.Collection
}

func (s *mongoAccountStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res := s.users.FindOneAndDelete(ctx, bson.M{"_id": id})
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return res.Err()
}

func (s *mongoAccountStore) DeletePostsByOwner(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.posts.DeleteMany(ctx, bson.M{"user": id})
	return err
}

type mongoTxRunner struct {
	client *mongo.Client
}

func (r *mongoTxRunner) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
