package middleware

import (
	"collegeportal/internal/models"
	"net/http"
	"strings"
)

// Authorizer — гейт доступа: проверяет токен и требуемую роль.
type Authorizer interface {
	Authorize(token string, required models.Role) (models.Identity, error)
}

// JWTAuth пропускает любой валидный токен, роль не важна.
func JWTAuth(gate Authorizer) func(http.Handler) http.Handler {
	return RequireRole(gate, models.RoleAny)
}

// BearerToken достаёт токен из "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}
