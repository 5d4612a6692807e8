package routes

import (
	"bytes"
	"collegeportal/internal/handlers"
	"collegeportal/internal/repository"
	"collegeportal/internal/services"
	"collegeportal/internal/utils"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type linkCatcher struct {
	mu    sync.Mutex
	links []string
}

func (c *linkCatcher) SendPasswordReset(_ context.Context, _, link string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links = append(c.links, link)
	return nil
}

func (c *linkCatcher) SendPasswordChanged(context.Context, string, time.Time) error { return nil }

func (c *linkCatcher) lastToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.links)
	u, err := url.Parse(c.links[len(c.links)-1])
	require.NoError(t, err)
	return u.Query().Get("token")
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

type testServer struct {
	router *mux.Router
	mail   *linkCatcher
}

func newTestServer(t *testing.T, allowAdmin bool) *testServer {
	t.Helper()
	repo := repository.NewMemoryUserRepository()
	hasher := utils.NewPasswordHasher(utils.HashBcrypt, bcrypt.MinCost)
	tokens, err := utils.NewTokenIssuer("routes-test-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)

	mail := &linkCatcher{}
	auth := services.NewAuthService(repo, hasher, tokens, allowAdmin)
	pw := services.NewPasswordService(repo, hasher, mail, "https://portal.college.edu", time.Hour)

	router := mux.NewRouter()
	InitRoutes(router, auth, Handlers{
		Auth:     handlers.NewAuthHandler(auth),
		Password: handlers.NewPasswordHandler(pw),
		Health:   handlers.NewHealthHandler(auth),
		Logs:     handlers.NewAdminLogsHandler(t.TempDir()),
	})
	return &testServer{router: router, mail: mail}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (s *testServer) register(t *testing.T, email, password, role string) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "password": password, "role": role, "full_name": "Test User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.UserID)
	return out.Token
}

func (s *testServer) login(t *testing.T, email, password, role string) (int, string) {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": password, "role": role})
	var out struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(env.Data, &out))
		assert.Equal(t, role, out.Role)
	}
	return rec.Code, out.Token
}

func TestRegisterLoginAndRoleGates(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "alice@college.edu", "Secret1!", "student")

	code, token := s.login(t, "alice@college.edu", "Secret1!", "student")
	require.Equal(t, http.StatusOK, code)

	rec, _ := s.do(t, http.MethodGet, "/api/student/dashboard", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/faculty/dashboard", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/student/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error)

	rec, env = s.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice@college.edu", me["email"])
	assert.NotContains(t, me, "password_hash")
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "alice@college.edu", "Secret1!", "student")

	for _, tc := range []struct{ email, password, role string }{
		{"alice@college.edu", "wrong-pass", "student"},
		{"ghost@college.edu", "Secret1!", "student"},
		{"alice@college.edu", "Secret1!", "faculty"},
	} {
		rec, env := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": tc.email, "password": tc.password, "role": tc.role})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", env.Error)
	}
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "alice@college.edu", "Secret1!", "student")

	rec, _ := s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "ALICE@college.edu", "password": "Secret1!", "role": "faculty"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "not-an-email", "password": "Secret1!", "role": "student"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "b@college.edu", "password": "Secret1!", "role": "janitor"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "b@college.edu", "password": "short", "role": "student"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "root@college.edu", "password": "Secret1!", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "admin self-signup is closed by default")

	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString("{broken"))
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t, false)
	token := s.register(t, "bob@college.edu", "Secret1!", "faculty")

	rec, env := s.do(t, http.MethodPost, "/api/validate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var id struct {
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &id))
	assert.Equal(t, "faculty", id.Role)

	rec, _ = s.do(t, http.MethodPost, "/api/validate", "", map[string]string{"token": token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodPost, "/api/validate", "", map[string]string{"token": token + "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "alice@college.edu", "Secret1!", "student")

	known, _ := s.do(t, http.MethodPost, "/api/password/forgot", "", map[string]string{"email": "alice@college.edu"})
	unknown, _ := s.do(t, http.MethodPost, "/api/password/forgot", "", map[string]string{"email": "ghost@college.edu"})
	assert.Equal(t, http.StatusAccepted, known.Code)
	assert.Equal(t, http.StatusAccepted, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String(), "no email enumeration")

	token := s.mail.lastToken(t)
	rec, _ := s.do(t, http.MethodPost, "/api/password/reset", "", map[string]string{"token": token, "new_password": "NewPass2@"})
	require.Equal(t, http.StatusOK, rec.Code)

	code, _ := s.login(t, "alice@college.edu", "Secret1!", "student")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.login(t, "alice@college.edu", "NewPass2@", "student")
	assert.Equal(t, http.StatusOK, code)

	rec, env := s.do(t, http.MethodPost, "/api/password/reset", "", map[string]string{"token": token, "new_password": "Another3#"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid or expired token", env.Error)
}

func TestChangePasswordOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	token := s.register(t, "alice@college.edu", "Secret1!", "student")

	rec, _ := s.do(t, http.MethodPost, "/api/password/change", "", map[string]string{"old_password": "Secret1!", "new_password": "NewPass2@"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/password/change", token, map[string]string{"old_password": "wrong-pass", "new_password": "NewPass2@"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/password/change", token, map[string]string{"old_password": "Secret1!", "new_password": "NewPass2@"})
	assert.Equal(t, http.StatusOK, rec.Code)

	code, _ := s.login(t, "alice@college.edu", "NewPass2@", "student")
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, true)
	s.register(t, "s1@college.edu", "Secret1!", "student")
	s.register(t, "f1@college.edu", "Secret1!", "faculty")
	admin := s.register(t, "root@college.edu", "Secret1!", "admin")

	rec, env := s.do(t, http.MethodGet, "/api/admin/users?page=1&page_size=2", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Users []map[string]any `json:"users"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Users, 2)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/dashboard", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// у админа нет обхода чужих ролевых веток
	rec, _ = s.do(t, http.MethodGet, "/api/faculty/dashboard", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, false)
	rec, _ := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
