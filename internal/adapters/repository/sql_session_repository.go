package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/blocktracker-engine/internal/adapters/database"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

var _ domain.SessionRepository = (*SQLSessionRepository)(nil)

// SQLSessionRepository stores sessions and their blocs through sqlx. Queries use '?'
// placeholders and are rebound for the connection's driver.
type SQLSessionRepository struct {
	db *sqlx.DB
}

func NewSQLSessionRepository(db *sqlx.DB) *SQLSessionRepository {
	return &SQLSessionRepository{db: db}
}

const sessionColumns = `id, start_date, end_date, created_at, updated_at`

const blocColumns = `id, session_id, position, level, completed, attempts, overhang, logged_at`

func (r *SQLSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertSession(ctx, tx, session); err != nil {
			if database.IsUniqueViolation(err) && session.IsActive() {
				return domain.ErrActiveSessionExists
			}
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return insertBlocs(ctx, tx, session)
	})
}

func (r *SQLSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	query := r.db.Rebind(`SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`)

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return r.withBlocs(ctx, row)
}

func (r *SQLSessionRepository) GetActive(ctx context.Context) (*domain.Session, error) {
	var row sessionRow
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE end_date IS NULL ORDER BY start_date DESC LIMIT 1`

	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return r.withBlocs(ctx, row)
}

func (r *SQLSessionRepository) withBlocs(ctx context.Context, row sessionRow) (*domain.Session, error) {
	session := row.toDomain()

	var blocs []blocRow
	query := r.db.Rebind(`SELECT ` + blocColumns + ` FROM blocs WHERE session_id = ? ORDER BY position ASC`)
	if err := r.db.SelectContext(ctx, &blocs, query, session.ID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	for _, b := range blocs {
		session.Blocs = append(session.Blocs, b.toDomain())
	}
	return session, nil
}

func (r *SQLSessionRepository) List(ctx context.Context) ([]*domain.Session, error) {
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+sessionColumns+` FROM sessions ORDER BY start_date ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	var blocs []blocRow
	if err := r.db.SelectContext(ctx, &blocs, `SELECT `+blocColumns+` FROM blocs ORDER BY session_id ASC, position ASC`); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	sessions := make([]*domain.Session, 0, len(rows))
	byID := make(map[string]*domain.Session, len(rows))
	for _, row := range rows {
		s := row.toDomain()
		sessions = append(sessions, s)
		byID[s.ID] = s
	}

	for _, b := range blocs {
		s, ok := byID[b.SessionID]
		if !ok {
			log.Printf("[DB] Orphan bloc %s for session %s", b.ID, b.SessionID)
			continue
		}
		s.Blocs = append(s.Blocs, b.toDomain())
	}

	return sessions, nil
}

func (r *SQLSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			UPDATE sessions SET start_date = ?, end_date = ?, updated_at = ?
			WHERE id = ?`)

		res, err := tx.ExecContext(ctx, query,
			session.StartDate.UTC(), nullableTime(session.EndDate), session.UpdatedAt.UTC(), session.ID)
		if err != nil {
			return fmt.Errorf("update query failed: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrSessionNotFound
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM blocs WHERE session_id = ?`), session.ID); err != nil {
			return fmt.Errorf("failed to clear blocs: %w", err)
		}

		return insertBlocs(ctx, tx, session)
	})
}

func (r *SQLSessionRepository) Delete(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM blocs WHERE session_id = ?`), id); err != nil {
			return fmt.Errorf("delete query failed: %w", err)
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sessions WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete query failed: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrSessionNotFound
		}
		return nil
	})
}

func (r *SQLSessionRepository) ReplaceAll(ctx context.Context, sessions []*domain.Session, unlocked []*domain.UnlockedBadge) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"blocs", "sessions", "unlocked_badges"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for _, s := range sessions {
			if err := insertSession(ctx, tx, s); err != nil {
				return fmt.Errorf("failed to insert session %s: %w", s.ID, err)
			}
			if err := insertBlocs(ctx, tx, s); err != nil {
				return err
			}
		}

		for _, u := range unlocked {
			if err := insertUnlocked(ctx, tx, u); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *SQLSessionRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				log.Printf("[DB] Rollback failed: %v", rerr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func insertSession(ctx context.Context, tx *sqlx.Tx, s *domain.Session) error {
	query := tx.Rebind(`INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?)`)
	_, err := tx.ExecContext(ctx, query,
		s.ID, s.StartDate.UTC(), nullableTime(s.EndDate), s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	return err
}

func insertBlocs(ctx context.Context, tx *sqlx.Tx, s *domain.Session) error {
	query := tx.Rebind(`INSERT INTO blocs (` + blocColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	for i, b := range s.Blocs {
		_, err := tx.ExecContext(ctx, query,
			b.ID, s.ID, i, b.Level, b.Completed, b.Attempts, b.Overhang, b.Date.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert bloc %s: %w", b.ID, err)
		}
	}
	return nil
}

// insertUnlocked keeps the existing record when the badge is already unlocked.
func insertUnlocked(ctx context.Context, tx *sqlx.Tx, u *domain.UnlockedBadge) error {
	query := tx.Rebind(`INSERT INTO unlocked_badges (id, badge_id, unlocked_at) VALUES (?, ?, ?)
		ON CONFLICT (badge_id) DO NOTHING`)
	if _, err := tx.ExecContext(ctx, query, u.ID, u.BadgeID, u.UnlockedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert unlocked badge %s: %w", u.BadgeID, err)
	}
	return nil
}
