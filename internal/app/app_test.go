package app

import (
	"collegeportal/internal/config"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store:            "memory",
		JWTSecret:        "app-test-secret-0123456789abcdef",
		SessionTokenTTL:  time.Hour,
		PasswordResetTTL: time.Hour,
		PasswordHash:     "bcrypt",
		BcryptCost:       4,
		EmailWorkers:     1,
		FrontendURL:      "http://localhost:3000",
	}
}

func TestInitApp_MemoryStore(t *testing.T) {
	a, err := InitApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInitApp_RejectsUnknownStore(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store = "redis"
	_, err := InitApp(context.Background(), cfg)
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.JWTSecret = ""
	_, err = InitApp(context.Background(), cfg)
	assert.Error(t, err)
}
