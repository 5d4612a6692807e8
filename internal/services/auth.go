package services

import (
	"collegeportal/internal/logger"
	"collegeportal/internal/models"
	"collegeportal/internal/repository"
	"collegeportal/internal/utils"
	"context"
	"errors"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // предел bcrypt
)

type AuthService struct {
	repo             repository.UserRepo
	hasher           *utils.PasswordHasher
	tokens           *utils.TokenIssuer
	policy           *bluemonday.Policy
	allowAdminSignup bool

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(repo repository.UserRepo, hasher *utils.PasswordHasher, tokens *utils.TokenIssuer, allowAdminSignup bool) *AuthService {
	return &AuthService{
		repo:             repo,
		hasher:           hasher,
		tokens:           tokens,
		policy:           bluemonday.StrictPolicy(),
		allowAdminSignup: allowAdminSignup,
	}
}

type RegisterInput struct {
	Email      string
	Password   string
	Role       models.Role
	FullName   string
	Phone      string
	Department string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := models.NormalizeEmail(in.Email)
	log := logger.WithCtx(ctx)
	log.Info("Регистрация пользователя (service)", zap.String("email_masked", utils.MaskEmail(email)), zap.String("role", string(in.Role)))

	if !in.Role.Valid() || (in.Role == models.RoleAdmin && !s.allowAdminSignup) {
		log.Warn("Роль недоступна для регистрации", zap.String("role", string(in.Role)))
		return nil, models.ErrRoleNotAllowed
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	// ранняя проверка экономит хеширование; гонку закрывает уникальный индекс в Create
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		log.Warn("Email уже зарегистрирован (service)", zap.String("email_masked", utils.MaskEmail(email)))
		return nil, models.ErrDuplicateEmail
	} else if !errors.Is(err, models.ErrNotFound) {
		log.Error("Ошибка проверки email", zap.Error(err))
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("Ошибка хеширования пароля", zap.Error(err))
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		Role:         in.Role,
		FullName:     s.sanitize(in.FullName),
		Phone:        s.sanitize(in.Phone),
		Department:   s.sanitize(in.Department),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, models.ErrDuplicateEmail) {
			log.Error("Ошибка создания пользователя", zap.Error(err))
		}
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		log.Error("Ошибка генерации токена", zap.Error(err))
		return nil, err
	}

	log.Info("Пользователь зарегистрирован (service)", zap.String("user_id", user.ID))
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Login: неизвестный email, неверный пароль и чужая роль дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, email, password string, role models.Role) (*AuthResult, error) {
	email = models.NormalizeEmail(email)
	log := logger.WithCtx(ctx)
	log.Info("Попытка входа (service)", zap.String("email_masked", utils.MaskEmail(email)), zap.String("role", string(role)))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// тратим столько же времени, сколько на настоящую проверку
			s.hasher.Verify(password, s.dummy())
			log.Warn("Пользователь не найден (service)", zap.String("email_masked", utils.MaskEmail(email)))
			return nil, models.ErrInvalidCredentials
		}
		log.Error("Ошибка получения пользователя", zap.Error(err))
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		log.Warn("Неверный пароль (service)", zap.String("user_id", user.ID))
		return nil, models.ErrInvalidCredentials
	}
	if user.Role != role {
		log.Warn("Роль не совпадает (service)", zap.String("user_id", user.ID), zap.String("role", string(role)))
		return nil, models.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		log.Error("Ошибка генерации токена", zap.Error(err))
		return nil, err
	}

	log.Info("Вход выполнен (service)", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Validate — проверка токена без требования к роли.
func (s *AuthService) Validate(token string) (models.Identity, error) {
	return s.tokens.Verify(token)
}

// Authorize — гейт перед защищённой операцией. Токен не продлевается и не меняется.
func (s *AuthService) Authorize(token string, required models.Role) (models.Identity, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return models.Identity{}, err
	}
	if required != models.RoleAny && id.Role != required {
		return models.Identity{}, models.ErrRoleMismatch
	}
	return id, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		logger.WithCtx(ctx).Warn("Пользователь не найден по ID (service)", zap.String("user_id", id), zap.Error(err))
	}
	return user, err
}

func (s *AuthService) GetUsersPaginated(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	return s.repo.ListUsers(ctx, limit, offset)
}

// Ping — для healthcheck: доступно ли хранилище.
func (s *AuthService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	userID := user.ID
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		logger.WithCtx(ctx).Warn("Не удалось перехешировать пароль", zap.String("user_id", userID), zap.Error(err))
		return
	}
	err = s.repo.UpdatePasswordHashIf(ctx, userID, user.PasswordHash, hashed, false)
	if errors.Is(err, models.ErrNotFound) {
		logger.WithCtx(ctx).Info("Пароль изменился параллельно, перехеширование пропущено", zap.String("user_id", userID))
		return
	}
	if err != nil {
		logger.WithCtx(ctx).Warn("Не удалось сохранить новый хеш пароля", zap.String("user_id", userID), zap.Error(err))
		return
	}
	logger.WithCtx(ctx).Info("Хеш пароля обновлён до текущих параметров", zap.String("user_id", userID))
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}

// sanitize — профильные поля хранятся plain text, без разметки.
func (s *AuthService) sanitize(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func validatePassword(p string) error {
	if len(p) < minPasswordLen || len(p) > maxPasswordLen {
		return models.ErrWeakPassword
	}
	return nil
}
