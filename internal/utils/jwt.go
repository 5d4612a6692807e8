package utils

import (
	"collegeportal/internal/models"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenVersion — версия формата claims; токены с другой версией не принимаем.
const tokenVersion = 1

type sessionClaims struct {
	jwt.RegisteredClaims
	Role    string `json:"role"`
	Version int    `json:"ver"`
}

// TokenIssuer выпускает и проверяет stateless сессионные токены (HS256).
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token issuer: empty signing secret")
	}
	if ttl <= 0 {
		return nil, errors.New("token issuer: non-positive lifetime")
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock подменяет источник времени (тесты).
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue создаёт токен: роль копируется из пользователя и дальше из БД не перечитывается.
func (t *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, errors.New("token issuer: empty subject")
	}
	if !user.Role.Valid() {
		return "", time.Time{}, errors.New("token issuer: unknown role " + string(user.Role))
	}

	// exp/iat в токене — целые секунды, выравниваем заранее, чтобы expiresAt совпадал с claims
	issuedAt := t.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(t.ttl)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:    string(user.Role),
		Version: tokenVersion,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify сначала проверяет подпись (payload до этого не разбираем), затем структуру claims и только потом срок.
func (t *TokenIssuer) Verify(tokenString string) (models.Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return models.Identity{}, models.ErrTokenMissing
	}

	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return models.Identity{}, models.ErrTokenMalformed
	}
	// Strict: ненулевые хвостовые биты последнего символа означают другую подпись
	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return models.Identity{}, models.ErrTokenBadSignature
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, t.secret); err != nil {
		return models.Identity{}, models.ErrTokenBadSignature
	}

	claims := &sessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err = parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return models.Identity{}, models.ErrTokenBadSignature
	default:
		return models.Identity{}, models.ErrTokenMalformed
	}

	if claims.Version != tokenVersion || claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return models.Identity{}, models.ErrTokenMalformed
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return models.Identity{}, models.ErrTokenMalformed
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok || string(role) != claims.Role {
		return models.Identity{}, models.ErrTokenMalformed
	}
	if !t.now().Before(claims.ExpiresAt.Time) {
		return models.Identity{}, models.ErrTokenExpired
	}

	return models.Identity{
		SubjectID: claims.Subject,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
