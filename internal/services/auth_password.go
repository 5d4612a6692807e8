package services

import (
	"collegeportal/internal/logger"
	"collegeportal/internal/models"
	"collegeportal/internal/repository"
	"collegeportal/internal/utils"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

type PasswordService struct {
	repo        repository.UserRepo
	hasher      *utils.PasswordHasher
	emailSender EmailSender // интерфейс отправки писем
	appURL      string      // фронтовый URL: ссылка вида /reset-password?token=...
	tokenTTL    time.Duration
	now         func() time.Time
}

type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, resetLink string, ttl time.Duration) error
	SendPasswordChanged(ctx context.Context, to string, at time.Time) error
}

func NewPasswordService(repo repository.UserRepo, hasher *utils.PasswordHasher, emailSender EmailSender, appURL string, tokenTTL time.Duration) *PasswordService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &PasswordService{
		repo:        repo,
		hasher:      hasher,
		emailSender: emailSender,
		appURL:      appURL,
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// WithClock подменяет текущее время (тесты).
func (s *PasswordService) WithClock(now func() time.Time) *PasswordService {
	s.now = now
	return s
}

// RequestReset генерирует одноразовый токен и отправляет письмо со ссылкой.
// Предыдущий тикет пользователя перезаписывается. ErrEmailNotFound клиенту
// не показывается: HTTP-слой отвечает одинаково.
func (s *PasswordService) RequestReset(ctx context.Context, email string) (*models.ResetTicket, error) {
	email = models.NormalizeEmail(email)
	log := logger.WithCtx(ctx)
	log.Info("Запрос на сброс пароля", zap.String("email_masked", utils.MaskEmail(email)))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("Пользователь для сброса пароля не найден", zap.String("email_masked", utils.MaskEmail(email)))
			return nil, models.ErrEmailNotFound
		}
		log.Error("Ошибка поиска пользователя при запросе сброса", zap.Error(err))
		return nil, err
	}

	// Сгенерировать криптостойкий токен
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		log.Error("Ошибка генерации токена для сброса", zap.Error(err), zap.String("user_id", user.ID))
		return nil, err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	// В базе храним только хеш
	expires := s.now().Add(s.tokenTTL)
	if err := s.repo.SetResetTicket(ctx, user.ID, hashResetToken(token), expires); err != nil {
		log.Error("Ошибка сохранения токена сброса пароля", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, url.QueryEscape(token))
	if err := s.emailSender.SendPasswordReset(ctx, user.Email, resetLink, s.tokenTTL); err != nil {
		// тикет уже сохранён; пользователь может запросить письмо повторно
		log.Error("Ошибка отправки письма для сброса пароля", zap.String("user_id", user.ID), zap.Error(err))
	}

	log.Info("Письмо со ссылкой на сброс пароля поставлено на отправку",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", expires),
	)
	return &models.ResetTicket{UserID: user.ID, Email: user.Email, Token: token, ExpiresAt: expires}, nil
}

// ResetPassword подтверждает токен и устанавливает новый пароль.
// Тикет гасится тем же оператором, что меняет хеш: повтор получает ErrInvalidOrExpiredResetToken.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := logger.WithCtx(ctx)
	log.Info("Попытка сброса пароля по токену")

	if err := validatePassword(newPassword); err != nil {
		log.Warn("Новый пароль не проходит политику")
		return err
	}
	if token == "" {
		return models.ErrInvalidOrExpiredResetToken
	}

	tokenHash := hashResetToken(token)
	now := s.now()

	// без живого тикета не тратим время на хеширование
	user, err := s.repo.FindByResetToken(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("Неверный или просроченный токен при сбросе пароля")
			return models.ErrInvalidOrExpiredResetToken
		}
		return err
	}

	pwHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		log.Error("Ошибка генерации хеша пароля", zap.Error(err), zap.String("user_id", user.ID))
		return err
	}

	userID, err := s.repo.ConsumeResetTicket(ctx, tokenHash, pwHash, now)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("Токен сброса уже использован", zap.String("user_id", user.ID))
			return models.ErrInvalidOrExpiredResetToken
		}
		log.Error("Ошибка обновления пароля пользователя", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}

	s.notifyChanged(ctx, userID, user.Email)
	log.Info("Пароль успешно сброшен", zap.String("user_id", userID))
	return nil
}

// ChangePassword меняет пароль авторизованного пользователя по старому паролю.
// Заодно гасит незавершённый сброс.
func (s *PasswordService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	log := logger.WithCtx(ctx)
	log.Info("Смена пароля (авторизованный пользователь)", zap.String("user_id", userID))

	if err := validatePassword(newPassword); err != nil {
		log.Warn("Новый пароль не проходит политику", zap.String("user_id", userID))
		return err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidCredentials
		}
		return err
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		log.Warn("Неверный старый пароль", zap.String("user_id", userID))
		return models.ErrInvalidCredentials
	}

	pwHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		log.Error("Ошибка генерации хеша пароля", zap.Error(err), zap.String("user_id", userID))
		return err
	}
	// старый пароль мог смениться сбросом, пока шла проверка
	if err := s.repo.UpdatePasswordHashIf(ctx, userID, user.PasswordHash, pwHash, true); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("Пароль изменён параллельно, смена отклонена", zap.String("user_id", userID))
			return models.ErrInvalidCredentials
		}
		log.Error("Ошибка обновления пароля", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.notifyChanged(ctx, userID, user.Email)
	log.Info("Пароль изменён", zap.String("user_id", userID))
	return nil
}

func (s *PasswordService) notifyChanged(ctx context.Context, userID, email string) {
	if err := s.emailSender.SendPasswordChanged(ctx, email, s.now()); err != nil {
		logger.WithCtx(ctx).Warn("Не удалось отправить уведомление о смене пароля", zap.String("user_id", userID), zap.Error(err))
	}
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
