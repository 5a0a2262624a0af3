package database

import (
	"context"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LockScope holds the dedicated connection carrying a session-level advisory
// lock. Close MUST be called on all exit paths to release the lock and return
// the connection to the pool.
type LockScope struct {
	conn *pgxpool.Conn
	key  int64
}

// Close releases the advisory lock and the underlying connection.
func (s *LockScope) Close() {
	if s.conn == nil {
		return
	}
	// Best effort: the lock is also released when the connection is closed.
	_, _ = s.conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", s.key)
	s.conn.Release()
	s.conn = nil
}

// commentLockKey derives a stable 64-bit advisory lock key from a comment id.
func commentLockKey(commentID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(commentID[:])
	return int64(h.Sum64())
}

// WithCommentLock acquires a per-comment advisory lock, blocking until any
// concurrent run for the same comment finishes. This serializes duplicate
// task-queue deliveries so the processed/prediction/summary rows have a
// single writer. The lock is held on a dedicated pooled connection because
// it spans more than one transaction.
func (db *DB) WithCommentLock(ctx context.Context, commentID uuid.UUID) (*LockScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	key := commentLockKey(commentID)
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		conn.Release()
		return nil, err
	}

	return &LockScope{conn: conn, key: key}, nil
}
