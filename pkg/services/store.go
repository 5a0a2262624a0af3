package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/neetimanthan/comment-engine/pkg/database"
)

// Unlocker releases a per-comment lock. Close must be safe to call on all
// exit paths.
type Unlocker interface {
	Close()
}

// Store scopes queries to the pool or a transaction and hands out per-comment
// locks. Repositories read their querier from the context, so services only
// decide the scope and the repositories stay oblivious to it.
type Store interface {
	WithPool(ctx context.Context) context.Context
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockComment(ctx context.Context, commentID uuid.UUID) (Unlocker, error)
}

type dbStore struct {
	db *database.DB
}

// NewStore wraps a database handle in the Store interface used by services.
func NewStore(db *database.DB) Store {
	return &dbStore{db: db}
}

var _ Store = (*dbStore)(nil)

func (s *dbStore) WithPool(ctx context.Context) context.Context {
	return s.db.WithPool(ctx)
}

func (s *dbStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.InTx(ctx, fn)
}

func (s *dbStore) LockComment(ctx context.Context, commentID uuid.UUID) (Unlocker, error) {
	return s.db.WithCommentLock(ctx, commentID)
}
