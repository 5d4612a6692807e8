package repository

import (
	"collegeportal/internal/logger"
	"collegeportal/internal/models"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const userColumns = `id::text, email, password_hash, role, full_name, phone, department,
	reset_token_hash, reset_expiry, created_at, updated_at`

type UserRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewUserRepository(db *pgxpool.Pool, timeout time.Duration) *UserRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &UserRepository{db: db, timeout: timeout}
}

// withTimeout — каждый запрос к базе ограничен по времени, чтобы не вешать вызывающего.
func (r *UserRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.FullName,
		&u.Phone,
		&u.Department,
		&u.ResetToken,
		&u.ResetExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	logger.Log.Info("Создание пользователя (repo)", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	// ON CONFLICT закрывает гонку двух одновременных регистраций на один email
	query := `
	INSERT INTO users (id, email, password_hash, role, full_name, phone, department)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT DO NOTHING
	RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.FullName,
		user.Phone,
		user.Department,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		logger.Log.Warn("Email уже зарегистрирован (repo)", zap.String("user_id", user.ID))
		return models.ErrDuplicateEmail
	}
	if err != nil {
		logger.Log.Error("Ошибка создания пользователя (repo)", zap.Error(err))
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		models.NormalizeEmail(email),
	))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logger.Log.Error("Ошибка получения пользователя по email (repo)", zap.Error(err))
		}
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if !validID(id) {
		return nil, models.ErrNotFound
	}
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logger.Log.Error("Ошибка получения пользователя по ID (repo)", zap.String("user_id", id), zap.Error(err))
		}
		return nil, mapError(err)
	}
	return u, nil
}

// UpdatePasswordHashIf: сравнение со старым хешем внутри UPDATE, чтобы не затереть
// пароль, установленный параллельным сбросом.
func (r *UserRepository) UpdatePasswordHashIf(ctx context.Context, userID, expectedHash, newHash string, clearReset bool) error {
	if !validID(userID) {
		return models.ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $3,
		    reset_token_hash = CASE WHEN $4 THEN NULL ELSE reset_token_hash END,
		    reset_expiry = CASE WHEN $4 THEN NULL ELSE reset_expiry END,
		    updated_at = now()
		WHERE id = $1 AND password_hash = $2`,
		userID, expectedHash, newHash, clearReset,
	)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.String("user_id", userID), zap.Error(err))
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		logger.Log.Error("Ошибка подсчёта пользователей (repo)", zap.Error(err))
		return nil, 0, mapError(err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		logger.Log.Error("Ошибка получения пользователей (repo)", zap.Error(err))
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			logger.Log.Error("Ошибка сканирования пользователя (repo)", zap.Error(err))
			return nil, 0, mapError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return users, total, nil
}

// validID — id в базе UUID; строку другого вида Postgres отверг бы ошибкой приведения типа.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return mapError(r.db.Ping(ctx))
}
