package domain

import (
	"context"
)

type SessionRepository interface {
	// Create persists a new session together with its blocs.
	Create(ctx context.Context, session *Session) error

	// GetByID retrieves a session and its blocs.
	GetByID(ctx context.Context, id string) (*Session, error)

	// List returns every session ordered by start date, blocs nested in insertion order.
	List(ctx context.Context) ([]*Session, error)

	// GetActive returns the unfinished session, or ErrSessionNotFound.
	GetActive(ctx context.Context) (*Session, error)

	// Update writes the session fields and replaces its bloc collection.
	Update(ctx context.Context, session *Session) error

	// Delete removes a session and cascades to its blocs.
	Delete(ctx context.Context, id string) error

	// ReplaceAll wipes sessions, blocs and unlock records and stores the given data atomically.
	ReplaceAll(ctx context.Context, sessions []*Session, unlocked []*UnlockedBadge) error
}

type BadgeRepository interface {
	// ListUnlocked returns every persisted unlock record.
	ListUnlocked(ctx context.Context) ([]*UnlockedBadge, error)

	// Begin opens a unit of work grouping inserts and deletes of unlock records.
	Begin(ctx context.Context) (BadgeUnitOfWork, error)
}

// BadgeUnitOfWork buffers unlock record changes until Commit.
// Inserting an already unlocked badge keeps the stored record and deleting a missing one
// succeeds, so overlapping evaluations of the same stale set both commit.
// Rollback after a successful Commit is a no-op.
type BadgeUnitOfWork interface {
	Insert(ctx context.Context, record *UnlockedBadge) error
	Delete(ctx context.Context, badgeID string) error
	Commit() error
	Rollback() error
}
