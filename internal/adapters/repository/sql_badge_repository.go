package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

var (
	_ domain.BadgeRepository = (*SQLBadgeRepository)(nil)
	_ domain.BadgeUnitOfWork = (*sqlBadgeUnitOfWork)(nil)
)

type SQLBadgeRepository struct {
	db *sqlx.DB
}

func NewSQLBadgeRepository(db *sqlx.DB) *SQLBadgeRepository {
	return &SQLBadgeRepository{db: db}
}

func (r *SQLBadgeRepository) ListUnlocked(ctx context.Context) ([]*domain.UnlockedBadge, error) {
	var rows []unlockedBadgeRow
	query := `SELECT id, badge_id, unlocked_at FROM unlocked_badges ORDER BY unlocked_at ASC, badge_id ASC`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	records := make([]*domain.UnlockedBadge, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}

// Begin opens a database transaction that backs the unit of work.
func (r *SQLBadgeRepository) Begin(ctx context.Context) (domain.BadgeUnitOfWork, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlBadgeUnitOfWork{tx: tx}, nil
}

type sqlBadgeUnitOfWork struct {
	tx   *sqlx.Tx
	done bool
}

func (u *sqlBadgeUnitOfWork) Insert(ctx context.Context, record *domain.UnlockedBadge) error {
	return insertUnlocked(ctx, u.tx, record)
}

// Delete succeeds when the record is already gone.
func (u *sqlBadgeUnitOfWork) Delete(ctx context.Context, badgeID string) error {
	if _, err := u.tx.ExecContext(ctx, u.tx.Rebind(`DELETE FROM unlocked_badges WHERE badge_id = ?`), badgeID); err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}
	return nil
}

func (u *sqlBadgeUnitOfWork) Commit() error {
	if err := u.tx.Commit(); err != nil {
		return err
	}
	u.done = true
	return nil
}

func (u *sqlBadgeUnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
