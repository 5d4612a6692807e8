package handlers

import (
	"context"
	"net/http"
	"time"

	"collegeportal/internal/logger"
	"collegeportal/internal/utils/helpers"

	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store pinger
}

func NewHealthHandler(store pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health godoc
// @Summary Проверка живости
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} helpers.Response
// @Router /healthz [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.WithCtx(r.Context()).Warn("Healthcheck: хранилище недоступно", zap.Error(err))
		helpers.Unavailable(w)
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
