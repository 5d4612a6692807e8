package handlers

import (
	"collegeportal/internal/logger"
	"collegeportal/internal/models"
	"collegeportal/internal/utils/helpers"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON читает тело и проверяет теги validate. Ошибку клиенту не детализируем.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		logger.WithCtx(r.Context()).Warn("Ошибка декодирования JSON", zap.String("path", r.URL.Path), zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			logger.WithCtx(r.Context()).Warn("Ошибка валидации", zap.String("field", verrs[0].Field()), zap.String("tag", verrs[0].Tag()))
			helpers.Error(w, http.StatusBadRequest, "Некорректное поле: "+verrs[0].Field())
			return false
		}
		helpers.Error(w, http.StatusBadRequest, "Ошибка валидации")
		return false
	}
	return true
}

// writeServiceError — общая часть маппинга ошибок сервисов в HTTP.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials), models.IsTokenError(err):
		helpers.Unauthorized(w)
	case errors.Is(err, models.ErrRoleMismatch):
		helpers.Forbidden(w)
	case errors.Is(err, models.ErrDuplicateEmail):
		helpers.Error(w, http.StatusConflict, "Email уже зарегистрирован")
	case errors.Is(err, models.ErrWeakPassword):
		helpers.Error(w, http.StatusBadRequest, "Пароль должен быть от 8 до 72 байт")
	case errors.Is(err, models.ErrRoleNotAllowed):
		helpers.Error(w, http.StatusBadRequest, "Роль недоступна для регистрации")
	case errors.Is(err, models.ErrInvalidOrExpiredResetToken):
		helpers.Error(w, http.StatusBadRequest, "invalid or expired token")
	case errors.Is(err, models.ErrNotFound):
		helpers.Error(w, http.StatusNotFound, "Не найдено")
	case models.IsRetryable(err):
		logger.WithCtx(ctx).Error("Хранилище недоступно", zap.Error(err))
		helpers.Unavailable(w)
	default:
		logger.WithCtx(ctx).Error("Внутренняя ошибка", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
