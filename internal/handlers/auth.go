package handlers

import (
	"collegeportal/internal/logger"
	"collegeportal/internal/middleware"
	"collegeportal/internal/models"
	"collegeportal/internal/reqctx"
	"collegeportal/internal/services"
	"collegeportal/internal/utils"
	"collegeportal/internal/utils/helpers"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	Password   string `json:"password" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=student faculty admin"`
	FullName   string `json:"full_name" validate:"max=200"`
	Phone      string `json:"phone" validate:"max=32"`
	Department string `json:"department" validate:"max=200"`
}

type registerResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=student faculty admin"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	UserID    string    `json:"user_id"`
}

type validateRequest struct {
	Token string `json:"token"`
}

type usersPage struct {
	Users    []*models.User `json:"users"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerRequest true "Данные регистрации"
// @Success 201 {object} registerResponse
// @Failure 400 {object} helpers.Response "Ошибка валидации"
// @Failure 409 {object} helpers.Response "Email уже зарегистрирован"
// @Failure 503 {object} helpers.Response "Хранилище недоступно"
// @Router /api/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	logger.WithCtx(r.Context()).Info("Регистрация пользователя", zap.String("email_masked", utils.MaskEmail(req.Email)), zap.String("role", req.Role))

	res, err := h.authService.Register(r.Context(), services.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Role:       models.Role(req.Role),
		FullName:   req.FullName,
		Phone:      req.Phone,
		Department: req.Department,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, registerResponse{Token: res.Token, UserID: res.User.ID, ExpiresAt: res.ExpiresAt})
}

// Login godoc
// @Summary Авторизация пользователя
// @Description Любая ошибка (нет пользователя, неверный пароль, другая роль) — одинаковый 401.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Данные для входа"
// @Success 200 {object} loginResponse
// @Failure 401 {object} helpers.Response "unauthorized"
// @Failure 503 {object} helpers.Response "Хранилище недоступно"
// @Router /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Login(r.Context(), req.Email, req.Password, models.Role(req.Role))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Role:      string(res.User.Role),
		UserID:    res.User.ID,
	})
}

// Validate godoc
// @Summary Проверка токена
// @Description Токен берётся из заголовка Authorization, иначе из тела запроса.
// @Tags auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body validateRequest false "Токен"
// @Success 200 {object} models.Identity
// @Failure 401 {object} helpers.Response "unauthorized"
// @Router /api/validate [post]
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" && r.ContentLength != 0 {
		var req validateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		token = req.Token
	}

	id, err := h.authService.Validate(token)
	if err != nil {
		logger.WithCtx(r.Context()).Info("Токен не прошёл проверку", zap.Error(err))
		helpers.Unauthorized(w)
		return
	}
	helpers.JSON(w, http.StatusOK, id)
}

// Me godoc
// @Summary Профиль текущего пользователя
// @Tags profile
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.User
// @Failure 401 {object} helpers.Response "unauthorized"
// @Failure 404 {object} helpers.Response "Пользователь не найден"
// @Router /api/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := reqctx.GetIdentity(r.Context())
	if !ok {
		helpers.Unauthorized(w)
		return
	}
	user, err := h.authService.GetUserByID(r.Context(), id.SubjectID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, user)
}

// Dashboard godoc
// @Summary Стартовая страница роли
// @Description Доступна только своей роли: /api/student/dashboard, /api/faculty/dashboard, /api/admin/dashboard.
// @Tags dashboard
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} helpers.Response "unauthorized"
// @Failure 403 {object} helpers.Response "forbidden"
// @Router /api/student/dashboard [get]
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := reqctx.GetIdentity(r.Context())
	if !ok {
		helpers.Unauthorized(w)
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{
		"subject_id": id.SubjectID,
		"role":       string(id.Role),
		"message":    "Добро пожаловать, " + string(id.Role),
	})
}

// GetUsers godoc
// @Summary Список пользователей (админ)
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Номер страницы (начиная с 1)"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} usersPage
// @Failure 401 {object} helpers.Response "unauthorized"
// @Failure 403 {object} helpers.Response "forbidden"
// @Router /api/admin/users [get]
func (h *AuthHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	users, total, err := h.authService.GetUsersPaginated(r.Context(), pageSize, offset)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, usersPage{Users: users, Total: total, Page: page, PageSize: pageSize})
}
