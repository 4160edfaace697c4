package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memAccountStore is an in-memory AccountStore whose post-deletion phase can
// be forced to fail, to exercise the rollback path.
type memAccountStore struct {
	users           map[primitive.ObjectID]bool
	posts           map[primitive.ObjectID]primitive.ObjectID // post id -> owner id
	failPostPhase   bool
	postPhaseCalled bool
}

func (s *memAccountStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	if !s.users[id] {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memAccountStore) DeletePostsByOwner(_ context.Context, id primitive.ObjectID) error {
	s.postPhaseCalled = true
	if s.failPostPhase {
		return errors.New("write conflict")
	}
	for post, owner := range s.posts {
		if owner == id {
			delete(s.posts, post)
		}
	}
	return nil
}

func (s *memAccountStore) ownedBy(id primitive.ObjectID) int {
	n := 0
	for _, owner := range s.posts {
		if owner == id {
			n++
		}
	}
	return n
}

// snapshotTxRunner mimics transactional semantics: any error from fn restores
// the store to its pre-transaction state.
type snapshotTxRunner struct {
	store   *memAccountStore
	started bool
}

func (r *snapshotTxRunner) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.started = true
	users := make(map[primitive.ObjectID]bool, len(r.store.users))
	for k, v := range r.store.users {
		users[k] = v
	}
	posts := make(map[primitive.ObjectID]primitive.ObjectID, len(r.store.posts))
	for k, v := range r.store.posts {
		posts[k] = v
	}

	if err := fn(ctx); err != nil {
		r.store.users = users
		r.store.posts = posts
		return err
	}
	return nil
}

func newDeleteFixture(failPostPhase bool) (*AccountDeleter, *memAccountStore, *snapshotTxRunner, primitive.ObjectID) {
	target := primitive.NewObjectID()
	other := primitive.NewObjectID()

	store := &memAccountStore{
		users: map[primitive.ObjectID]bool{target: true, other: true},
		posts: map[primitive.ObjectID]primitive.ObjectID{
			primitive.NewObjectID(): target,
			primitive.NewObjectID(): target,
			primitive.NewObjectID(): target,
			primitive.NewObjectID(): other,
		},
		failPostPhase: failPostPhase,
	}
	tx := &snapshotTxRunner{store: store}
	deleter := &AccountDeleter{store: store, tx: tx, log: zap.NewNop()}
	return deleter, store, tx, target
}

func TestDeleteAccountCascades(t *testing.T) {
	deleter, store, _, target := newDeleteFixture(false)

	err := deleter.DeleteAccount(context.Background(), target.Hex())
	require.NoError(t, err)

	assert.False(t, store.users[target], "user record must be gone")
	assert.Equal(t, 0, store.ownedBy(target), "no orphaned posts may survive")
	assert.Len(t, store.posts, 1, "other users' posts stay untouched")
}

func TestDeleteAccountUnknownUser(t *testing.T) {
	deleter, store, _, _ := newDeleteFixture(false)

	err := deleter.DeleteAccount(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.postPhaseCalled, "no post deletions may be attempted")
	assert.Len(t, store.users, 2)
	assert.Len(t, store.posts, 4)
}

func TestDeleteAccountInvalidID(t *testing.T) {
	deleter, _, tx, _ := newDeleteFixture(false)

	err := deleter.DeleteAccount(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, tx.started, "no transaction may be opened for a malformed id")
}

func TestDeleteAccountRollsBackOnPostPhaseFailure(t *testing.T) {
	deleter, store, _, target := newDeleteFixture(true)

	err := deleter.DeleteAccount(context.Background(), target.Hex())
	assert.ErrorIs(t, err, ErrTransactionFailure)

	// Full rollback: the user deletion that succeeded inside the
	// transaction must not be observable either.
	assert.True(t, store.users[target], "user deletion must be rolled back")
	assert.Equal(t, 3, store.ownedBy(target), "post set must be intact")
}
