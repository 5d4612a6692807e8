package handlers

import (
	"errors"
	"net/http"

	"collegeportal/internal/logger"
	"collegeportal/internal/models"
	"collegeportal/internal/reqctx"
	"collegeportal/internal/services"
	"collegeportal/internal/utils"
	"collegeportal/internal/utils/helpers"

	"go.uber.org/zap"
)

type PasswordHandler struct {
	svc *services.PasswordService
}

func NewPasswordHandler(svc *services.PasswordService) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

type forgotReq struct {
	Email string `json:"email" validate:"required,max=254"`
}

type resetReq struct {
	Token       string `json:"token" validate:"required,max=512"`
	NewPassword string `json:"new_password" validate:"required"`
}

type changeReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Forgot godoc
// @Summary Запрос восстановления пароля
// @Description Отправляет письмо со ссылкой для сброса пароля. Ответ всегда одинаковый, даже если e-mail не найден.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotReq true "Email пользователя"
// @Success 202 {object} map[string]bool
// @Failure 400 {object} helpers.Response
// @Router /api/password/forgot [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotReq
	if !decodeJSON(w, r, &req) {
		return
	}

	// Не раскрываем, существует ли email — ответ одинаковый
	if _, err := h.svc.RequestReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, models.ErrEmailNotFound) {
			log.Info("Сброс для неизвестного email", zap.String("email_masked", utils.MaskEmail(req.Email)))
		} else {
			log.Error("Сбой при запросе восстановления пароля", zap.String("email_masked", utils.MaskEmail(req.Email)), zap.Error(err))
		}
	}

	helpers.JSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Устанавливает новый пароль по токену из письма. Токен одноразовый.
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetReq true "Токен и новый пароль"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} helpers.Response
// @Failure 503 {object} helpers.Response
// @Router /api/password/reset [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Change godoc
// @Summary Смена пароля (авторизованный пользователь)
// @Tags password
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body changeReq true "Старый и новый пароль"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} helpers.Response
// @Failure 401 {object} helpers.Response
// @Router /api/password/change [post]
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	id, ok := reqctx.GetIdentity(r.Context())
	if !ok {
		helpers.Unauthorized(w)
		return
	}

	var req changeReq
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), id.SubjectID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
