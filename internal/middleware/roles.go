package middleware

import (
	"collegeportal/internal/logger"
	"collegeportal/internal/models"
	"collegeportal/internal/reqctx"
	"collegeportal/internal/utils/helpers"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// RequireRole проверяет токен до вызова хендлера. Ошибки токена — 401, чужая роль — 403.
// Обходов для админа нет: admin проходит только туда, где требуется admin (или любая роль).
// Токен не продлевается и не перевыпускается.
func RequireRole(gate Authorizer, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			id, err := gate.Authorize(BearerToken(r), role)
			if err != nil {
				log := logger.WithCtx(r.Context())
				if errors.Is(err, models.ErrRoleMismatch) {
					log.Warn("Доступ запрещён: роль не подходит",
						zap.String("required", string(role)), zap.String("path", r.URL.Path))
					helpers.Forbidden(w)
					return
				}
				log.Warn("Неверный или отсутствующий токен", zap.String("path", r.URL.Path), zap.Error(err))
				helpers.Unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(reqctx.WithIdentity(r.Context(), id)))
		})
	}
}
