package repository

import (
	"collegeportal/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserRepo — хранилище учётных записей. Реализации: Postgres и in-memory.
// Все мутации — одна атомарная операция в хранилище, без read-modify-write на стороне вызывающего.
type UserRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// UpdatePasswordHashIf меняет хеш, только если текущий равен expectedHash; иначе ErrNotFound.
	// clearReset гасит тикет сброса тем же оператором.
	UpdatePasswordHashIf(ctx context.Context, userID, expectedHash, newHash string, clearReset bool) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error)
	Ping(ctx context.Context) error

	PasswordResetRepo
}

// PasswordResetRepo — операции с тикетом сброса. Хранится только хеш токена.
type PasswordResetRepo interface {
	SetResetTicket(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ClearResetTicket(ctx context.Context, userID string) error
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	// ConsumeResetTicket меняет хеш пароля и гасит тикет одним действием.
	// Повторный вызов с тем же токеном возвращает ErrNotFound.
	ConsumeResetTicket(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (string, error)
}

const (
	pgUniqueViolation = "23505"
	emailUniqueIndex  = "users_email_lower_key"
)

// mapError переводит ошибки pgx в доменные: not found / duplicate / store unavailable.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == emailUniqueIndex {
		return models.ErrDuplicateEmail
	}
	return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
}
