package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/blocktracker-engine/internal/adapters/database"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

type repoPair struct {
	sessions domain.SessionRepository
	badges   domain.BadgeRepository
}

func setupSQLite(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	_ = godotenv.Load("../../../.env")

	dsn := database.PostgresDSN(
		getEnv("DB_USER", "blocktracker"),
		getEnv("DB_PASSWORD", "secret"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "blocktracker"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.Open(ctx, database.DriverPgx, dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}

	_, err = db.Exec("TRUNCATE TABLE blocs, sessions, unlocked_badges CASCADE")
	require.NoError(t, err, "Failed to clean up database")

	t.Cleanup(func() {
		db.Exec("TRUNCATE TABLE blocs, sessions, unlocked_badges CASCADE")
		db.Close()
	})
	return db
}

func TestRepositories_Memory(t *testing.T) {
	repo := NewInMemoryRepository()
	runRepositoryContract(t, repoPair{sessions: repo, badges: repo})
}

func TestRepositories_SQLite(t *testing.T) {
	db := setupSQLite(t)
	runRepositoryContract(t, repoPair{
		sessions: NewSQLSessionRepository(db),
		badges:   NewSQLBadgeRepository(db),
	})
}

func TestRepositories_Postgres_Integration(t *testing.T) {
	db := setupPostgres(t)
	runRepositoryContract(t, repoPair{
		sessions: NewSQLSessionRepository(db),
		badges:   NewSQLBadgeRepository(db),
	})
}

func newSession(t *testing.T, start time.Time, finished bool, blocs ...[4]int) *domain.Session {
	t.Helper()

	s := domain.NewSession(start)
	for _, b := range blocs {
		_, err := s.AddBloc(b[0], b[1] == 1, b[2], b[3] == 1)
		require.NoError(t, err)
	}
	if finished {
		require.NoError(t, s.Finish(start.Add(time.Hour)))
	}
	return s
}

func runRepositoryContract(t *testing.T, repos repoPair) {
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 18, 0, 0, 0, time.UTC)

	older := newSession(t, base, true, [4]int{5, 1, 1, 0}, [4]int{8, 0, 4, 1})
	newer := newSession(t, base.AddDate(0, 0, 3), true, [4]int{6, 1, 2, 1})

	t.Run("Success: Create and read back with blocs in order", func(t *testing.T) {
		require.NoError(t, repos.sessions.Create(ctx, newer))
		require.NoError(t, repos.sessions.Create(ctx, older))

		got, err := repos.sessions.GetByID(ctx, older.ID)
		require.NoError(t, err)

		assert.True(t, older.StartDate.Equal(got.StartDate))
		require.NotNil(t, got.EndDate)
		assert.True(t, older.EndDate.Equal(*got.EndDate))
		require.Len(t, got.Blocs, 2)
		assert.Equal(t, older.Blocs[0].ID, got.Blocs[0].ID)
		assert.Equal(t, 8, got.Blocs[1].Level)
		assert.False(t, got.Blocs[1].Completed)
		assert.Equal(t, 4, got.Blocs[1].Attempts)
		assert.True(t, got.Blocs[1].Overhang)
		assert.Equal(t, older.ID, got.Blocs[1].SessionID)
		assert.InDelta(t, older.TotalScore(), got.TotalScore(), 1e-9)
	})

	t.Run("Success: List is ordered by start date", func(t *testing.T) {
		list, err := repos.sessions.List(ctx)
		require.NoError(t, err)

		require.Len(t, list, 2)
		assert.Equal(t, older.ID, list[0].ID)
		assert.Equal(t, newer.ID, list[1].ID)
		assert.Len(t, list[0].Blocs, 2)
		assert.Len(t, list[1].Blocs, 1)
	})

	t.Run("Error: Unknown session", func(t *testing.T) {
		_, err := repos.sessions.GetByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		assert.ErrorIs(t, repos.sessions.Delete(ctx, "does-not-exist"), domain.ErrSessionNotFound)
		assert.ErrorIs(t, repos.sessions.Update(ctx, domain.NewSession(base)), domain.ErrSessionNotFound)
	})

	active := newSession(t, base.AddDate(0, 0, 7), false)

	t.Run("Success: Single active session", func(t *testing.T) {
		_, err := repos.sessions.GetActive(ctx)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		require.NoError(t, repos.sessions.Create(ctx, active))

		got, err := repos.sessions.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, active.ID, got.ID)
		assert.Nil(t, got.EndDate)

		second := newSession(t, base.AddDate(0, 0, 8), false)
		assert.ErrorIs(t, repos.sessions.Create(ctx, second), domain.ErrActiveSessionExists)
	})

	t.Run("Success: Update replaces the bloc set", func(t *testing.T) {
		got, err := repos.sessions.GetByID(ctx, active.ID)
		require.NoError(t, err)

		_, err = got.AddBloc(3, true, 1, false)
		require.NoError(t, err)
		_, err = got.AddBloc(4, false, 2, false)
		require.NoError(t, err)
		require.NoError(t, got.RemoveBloc(got.Blocs[0].ID))
		require.NoError(t, got.Finish(got.StartDate.Add(45*time.Minute)))

		require.NoError(t, repos.sessions.Update(ctx, got))

		reloaded, err := repos.sessions.GetByID(ctx, active.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Blocs, 1)
		assert.Equal(t, 4, reloaded.Blocs[0].Level)
		require.NotNil(t, reloaded.EndDate)
		assert.Equal(t, 45*time.Minute, reloaded.Duration())

		_, err = repos.sessions.GetActive(ctx)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Success: Delete cascades to blocs", func(t *testing.T) {
		require.NoError(t, repos.sessions.Delete(ctx, active.ID))

		_, err := repos.sessions.GetByID(ctx, active.ID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		list, err := repos.sessions.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("Success: Badge unit of work commits atomically", func(t *testing.T) {
		at := base.Add(2 * time.Hour)

		uow, err := repos.badges.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.Insert(ctx, domain.NewUnlockedBadge("first_bloc", at)))
		require.NoError(t, uow.Insert(ctx, domain.NewUnlockedBadge("first_session", at)))
		require.NoError(t, uow.Commit())
		assert.NoError(t, uow.Rollback(), "rollback after commit is a no-op")

		records, err := repos.badges.ListUnlocked(ctx)
		require.NoError(t, err)
		assert.Contains(t, domain.UnlockedIDs(records), "first_bloc")
		assert.Contains(t, domain.UnlockedIDs(records), "first_session")
		for _, r := range records {
			assert.True(t, at.Equal(r.UnlockedAt))
		}
	})

	t.Run("Success: Rolled back changes are discarded", func(t *testing.T) {
		uow, err := repos.badges.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.Insert(ctx, domain.NewUnlockedBadge("ten_blocs", base)))
		require.NoError(t, uow.Delete(ctx, "first_bloc"))
		require.NoError(t, uow.Rollback())

		records, err := repos.badges.ListUnlocked(ctx)
		require.NoError(t, err)
		ids := domain.UnlockedIDs(records)
		assert.Contains(t, ids, "first_bloc")
		assert.NotContains(t, ids, "ten_blocs")
	})

	t.Run("Success: Revocation deletes the record", func(t *testing.T) {
		uow, err := repos.badges.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.Delete(ctx, "first_session"))
		require.NoError(t, uow.Commit())

		records, err := repos.badges.ListUnlocked(ctx)
		require.NoError(t, err)
		assert.NotContains(t, domain.UnlockedIDs(records), "first_session")
	})

	t.Run("Edge Case: Replaying a stale delta still commits", func(t *testing.T) {
		before, err := repos.badges.ListUnlocked(ctx)
		require.NoError(t, err)

		uow, err := repos.badges.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.Insert(ctx, domain.NewUnlockedBadge("first_bloc", base.AddDate(0, 0, 7))))
		require.NoError(t, uow.Delete(ctx, "first_session"))
		require.NoError(t, uow.Commit())

		after, err := repos.badges.ListUnlocked(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(before))
		for i := range before {
			assert.Equal(t, before[i].ID, after[i].ID, "existing unlock record is kept")
			assert.True(t, before[i].UnlockedAt.Equal(after[i].UnlockedAt))
		}
	})

	t.Run("Success: ReplaceAll swaps the whole dataset", func(t *testing.T) {
		replacement := newSession(t, base.AddDate(0, 1, 0), true, [4]int{12, 1, 1, 1})
		record := domain.NewUnlockedBadge("level_flash_12", base)

		require.NoError(t, repos.sessions.ReplaceAll(ctx, []*domain.Session{replacement}, []*domain.UnlockedBadge{record}))

		list, err := repos.sessions.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, replacement.ID, list[0].ID)
		require.Len(t, list[0].Blocs, 1)
		assert.Equal(t, 12, list[0].Blocs[0].Level)

		records, err := repos.badges.ListUnlocked(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, record.ID, records[0].ID)
		assert.Equal(t, "level_flash_12", records[0].BadgeID)

		_, err = repos.sessions.GetByID(ctx, older.ID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestInMemoryRepository_Isolation(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	s := domain.NewSession(time.Now())
	_, err := s.AddBloc(5, true, 1, false)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, s))

	s.Blocs[0].Level = 9

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Blocs[0].Level, "stored copy is not affected by caller mutations")

	got.Blocs[0].Level = 10
	again, _ := repo.GetByID(ctx, s.ID)
	assert.Equal(t, 5, again.Blocs[0].Level)
}
