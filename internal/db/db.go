package db

import (
	"collegeportal/internal/config"
	"collegeportal/internal/db/migrations"
	"collegeportal/internal/logger"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// NewPostgresConnection открывает пул и ждёт, пока база ответит на ping:
// при старте в docker-compose Postgres часто поднимается позже приложения.
func NewPostgresConnection(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		return nil, err
	}

	attempts := cfg.DbConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(500*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.DbTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			logger.Log.Warn("База недоступна, повторяем подключение",
				zap.String("dsn", cfg.GetDSNSafe()), zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.GetDSNSafe(), err)
	}

	logger.Log.Info("Подключение к базе установлено", zap.String("dsn", cfg.GetDSNSafe()))
	return pool, nil
}

// RunMigrations применяет встроенные goose-миграции через database/sql поверх того же пула.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Close не вызываем: соединениями владеет пул, idle-соединений у sql.DB нет.
	sqlDB := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
