package repository

import (
	"collegeportal/internal/models"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ UserRepo = (*UserRepository)(nil)
	_ UserRepo = (*MemoryUserRepository)(nil)
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newUser(id, email string) *models.User {
	return &models.User{ID: id, Email: email, PasswordHash: "h", Role: models.RoleStudent}
}

func TestMemory_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository().WithClock(func() time.Time { return t0 })

	require.NoError(t, repo.Create(ctx, newUser("u1", "Alice@College.edu")))

	u, err := repo.FindByEmail(ctx, "alice@college.EDU")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, t0, u.CreatedAt)

	_, err = repo.FindByEmail(ctx, "bob@college.edu")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemory_DuplicateEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	require.NoError(t, repo.Create(ctx, newUser("u1", "alice@college.edu")))
	err := repo.Create(ctx, newUser("u2", " ALICE@college.edu "))
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestMemory_ConcurrentDuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if repo.Create(ctx, newUser(fmt.Sprintf("u%d", i), "race@college.edu")) == nil {
				atomic.AddInt32(&ok, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@college.edu")))

	u, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	u.PasswordHash = "mutated"

	again, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "h", again.PasswordHash)
}

func TestMemory_ResetTicketLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@college.edu")))

	exp := t0.Add(time.Hour)
	require.NoError(t, repo.SetResetTicket(ctx, "u1", "hash-1", exp))

	u, err := repo.FindByResetToken(ctx, "hash-1", t0)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = repo.FindByResetToken(ctx, "hash-1", exp)
	assert.ErrorIs(t, err, models.ErrNotFound, "expired ticket behaves as missing")

	// перевыпуск гасит старый тикет
	require.NoError(t, repo.SetResetTicket(ctx, "u1", "hash-2", exp))
	_, err = repo.FindByResetToken(ctx, "hash-1", t0)
	assert.ErrorIs(t, err, models.ErrNotFound)

	id, err := repo.ConsumeResetTicket(ctx, "hash-2", "new-hash", t0)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = repo.ConsumeResetTicket(ctx, "hash-2", "other-hash", t0)
	assert.ErrorIs(t, err, models.ErrNotFound)

	u, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", u.PasswordHash)
	assert.Nil(t, u.ResetToken)
	assert.Nil(t, u.ResetExpiry)

	assert.ErrorIs(t, repo.SetResetTicket(ctx, "ghost", "h", exp), models.ErrNotFound)
}

func TestMemory_ClearResetTicket(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@college.edu")))
	require.NoError(t, repo.SetResetTicket(ctx, "u1", "hash-1", t0.Add(time.Hour)))

	require.NoError(t, repo.ClearResetTicket(ctx, "u1"))
	_, err := repo.FindByResetToken(ctx, "hash-1", t0)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemory_UpdatePasswordHashIf(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@college.edu")))
	require.NoError(t, repo.SetResetTicket(ctx, "u1", "hash-1", t0.Add(time.Hour)))

	err := repo.UpdatePasswordHashIf(ctx, "u1", "stale", "h2", true)
	assert.ErrorIs(t, err, models.ErrNotFound)
	u, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "h", u.PasswordHash)
	require.NotNil(t, u.ResetToken, "mismatch leaves the ticket alone")

	require.NoError(t, repo.UpdatePasswordHashIf(ctx, "u1", "h", "h2", false))
	u, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "h2", u.PasswordHash)
	assert.NotNil(t, u.ResetToken)

	require.NoError(t, repo.UpdatePasswordHashIf(ctx, "u1", "h2", "h3", true))
	u, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "h3", u.PasswordHash)
	assert.Nil(t, u.ResetToken)
	assert.Nil(t, u.ResetExpiry)

	assert.ErrorIs(t, repo.UpdatePasswordHashIf(ctx, "ghost", "h", "h2", false), models.ErrNotFound)
}

func TestMemory_ConcurrentConsumeOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@college.edu")))
	require.NoError(t, repo.SetResetTicket(ctx, "u1", "hash-1", t0.Add(time.Hour)))

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ConsumeResetTicket(ctx, "hash-1", "new", t0); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok)
}

func TestMemory_ListUsersPaging(t *testing.T) {
	ctx := context.Background()
	clock := t0
	repo := NewMemoryUserRepository().WithClock(func() time.Time { return clock })
	for i := 0; i < 5; i++ {
		clock = t0.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, newUser(fmt.Sprintf("u%d", i), fmt.Sprintf("s%d@college.edu", i))))
	}

	page, total, err := repo.ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "u2", page[0].ID)
	assert.Equal(t, "u3", page[1].ID)

	page, _, err = repo.ListUsers(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), models.ErrNotFound)

	dup := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: emailUniqueIndex}
	assert.ErrorIs(t, mapError(fmt.Errorf("insert: %w", dup)), models.ErrDuplicateEmail)

	other := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_reset_token_hash_key"}
	assert.ErrorIs(t, mapError(other), models.ErrStoreUnavailable)

	err := mapError(context.DeadlineExceeded)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.True(t, models.IsRetryable(err))

	assert.ErrorIs(t, mapError(errors.New("connection refused")), models.ErrStoreUnavailable)
}
