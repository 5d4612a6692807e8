package app

import (
	"context"
	"fmt"

	"collegeportal/internal/config"
	"collegeportal/internal/db"
	"collegeportal/internal/handlers"
	"collegeportal/internal/logger"
	"collegeportal/internal/repository"
	"collegeportal/internal/routes"
	"collegeportal/internal/services"
	"collegeportal/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// App — собранный роутер и то, что нужно остановить при выходе.
type App struct {
	Router  *mux.Router
	cleanup []func()
}

// Close останавливает воркеры и закрывает соединения в обратном порядке.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func InitApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	// Хранилище
	userRepo, err := a.initStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTokenTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	hasher := utils.NewPasswordHasher(cfg.PasswordHash, cfg.BcryptCost)

	// Сервисы
	emailService := services.NewEmailService(cfg)
	emailService.Start(context.Background(), cfg.EmailWorkers)
	a.cleanup = append(a.cleanup, emailService.Stop)

	authService := services.NewAuthService(userRepo, hasher, tokens, cfg.AllowAdminSignup)
	passwordService := services.NewPasswordService(userRepo, hasher, emailService, cfg.FrontendURL, cfg.PasswordResetTTL)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authService, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Password: handlers.NewPasswordHandler(passwordService),
		Health:   handlers.NewHealthHandler(authService),
		Logs:     handlers.NewAdminLogsHandler(logger.Dir),
	})
	a.Router = router

	return a, nil
}

func (a *App) initStore(ctx context.Context, cfg *config.Config) (repository.UserRepo, error) {
	switch cfg.Store {
	case "memory":
		logger.Log.Warn("Используется хранилище в памяти: данные пропадут при перезапуске")
		return repository.NewMemoryUserRepository(), nil
	case "postgres":
		conn, err := db.NewPostgresConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.cleanup = append(a.cleanup, conn.Close)

		if err := db.RunMigrations(ctx, conn); err != nil {
			return nil, err
		}
		logger.Log.Info("Подключение к Postgres готово", zap.String("dsn", cfg.GetDSNSafe()))
		return repository.NewUserRepository(conn, cfg.DbTimeout), nil
	default:
		return nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
}
