package repository

import (
	"collegeportal/internal/logger"
	"collegeportal/internal/models"
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SetResetTicket перезаписывает прежний тикет: одновременно действует только последний.
func (r *UserRepository) SetResetTicket(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if !validID(userID) {
		return models.ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET reset_token_hash = $2, reset_expiry = $3, updated_at = now()
		WHERE id = $1`,
		userID, tokenHash, expiresAt,
	)
	if err != nil {
		logger.Log.Error("Ошибка сохранения тикета сброса (repo)", zap.String("user_id", userID), zap.Error(err))
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearResetTicket(ctx context.Context, userID string) error {
	if !validID(userID) {
		return models.ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET reset_token_hash = NULL, reset_expiry = NULL, updated_at = now()
		WHERE id = $1`,
		userID,
	)
	if err != nil {
		logger.Log.Error("Ошибка очистки тикета сброса (repo)", zap.String("user_id", userID), zap.Error(err))
	}
	return mapError(err)
}

// FindByResetToken — истёкший тикет неотличим от несуществующего.
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = $1 AND reset_expiry > $2`,
		tokenHash, now,
	))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logger.Log.Error("Ошибка поиска по токену сброса (repo)", zap.Error(err))
		}
		return nil, mapError(err)
	}
	return u, nil
}

// ConsumeResetTicket: условный UPDATE — из двух конкурентных запросов с одним токеном
// строку обновит только первый, второй после блокировки перепроверит WHERE и ничего не найдёт.
func (r *UserRepository) ConsumeResetTicket(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var userID string
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token_hash = NULL, reset_expiry = NULL, updated_at = now()
		WHERE reset_token_hash = $1 AND reset_expiry > $3
		RETURNING id::text`,
		tokenHash, newPasswordHash, now,
	).Scan(&userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logger.Log.Error("Ошибка применения тикета сброса (repo)", zap.Error(err))
		}
		return "", mapError(err)
	}
	return userID, nil
}
