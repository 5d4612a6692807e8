package utils

import (
	"collegeportal/internal/models"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-123456"

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func newIssuer(t *testing.T, now *time.Time) *TokenIssuer {
	t.Helper()
	iss, err := NewTokenIssuer(testSecret, 24*time.Hour)
	require.NoError(t, err)
	return iss.WithClock(fixedClock(now))
}

func signRaw(t *testing.T, claims jwt.MapClaims, alg string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if alg != "" {
		tok.Header["alg"] = alg
	}
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenIssuer("  ", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenIssuer("k", 0)
	assert.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := t0
	iss := newIssuer(t, &now)

	tok, exp, err := iss.Issue(&models.User{ID: "u-1", Role: models.RoleFaculty})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), exp)

	id, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.SubjectID)
	assert.Equal(t, models.RoleFaculty, id.Role)
	assert.True(t, id.IssuedAt.Equal(t0))
	assert.True(t, id.ExpiresAt.Equal(exp))
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	now := t0
	iss := newIssuer(t, &now)

	tok, exp, err := iss.Issue(&models.User{ID: "u-1", Role: models.RoleStudent})
	require.NoError(t, err)

	now = exp.Add(-time.Second)
	_, err = iss.Verify(tok)
	assert.NoError(t, err)

	now = exp
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, models.ErrTokenExpired)

	now = exp.Add(time.Nanosecond)
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

const b64url = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func TestVerify_TamperedTokenIsBadSignature(t *testing.T) {
	now := t0
	iss := newIssuer(t, &now)

	tok, _, err := iss.Issue(&models.User{ID: "u-1", Role: models.RoleStudent})
	require.NoError(t, err)

	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}
		b := []byte(tok)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		_, err := iss.Verify(string(b))
		assert.ErrorIs(t, err, models.ErrTokenBadSignature, "byte %d", i)
	}

	// последний символ подписи несёт хвостовые биты: любая замена должна отвергаться
	last := len(tok) - 1
	for _, c := range []byte(b64url) {
		if c == tok[last] {
			continue
		}
		_, err := iss.Verify(tok[:last] + string(c))
		assert.ErrorIs(t, err, models.ErrTokenBadSignature, "last char %q", c)
	}

	_, err = iss.Verify(tok + "A")
	assert.ErrorIs(t, err, models.ErrTokenBadSignature)
	_, err = iss.Verify(tok[:last])
	assert.ErrorIs(t, err, models.ErrTokenBadSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	now := t0
	iss := newIssuer(t, &now)
	tok, _, err := iss.Issue(&models.User{ID: "u-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	other, err := NewTokenIssuer("another-secret-another-secret-0000", time.Hour)
	require.NoError(t, err)
	_, err = other.WithClock(fixedClock(&now)).Verify(tok)
	assert.ErrorIs(t, err, models.ErrTokenBadSignature)
}

func TestVerify_Malformed(t *testing.T) {
	now := t0
	iss := newIssuer(t, &now)

	cases := map[string]string{
		"two segments":  "abc.def",
		"four segments": "a.b.c.d",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(tok)
			assert.ErrorIs(t, err, models.ErrTokenMalformed)
		})
	}

	_, err := iss.Verify("abc.def.!!!")
	assert.ErrorIs(t, err, models.ErrTokenBadSignature)

	_, err = iss.Verify("")
	assert.ErrorIs(t, err, models.ErrTokenMissing)
}

func TestVerify_ClaimsChecks(t *testing.T) {
	now := t0
	iss := newIssuer(t, &now)
	future := t0.Add(time.Hour).Unix()

	cases := map[string]jwt.MapClaims{
		"unknown role":    {"sub": "u", "role": "janitor", "iat": t0.Unix(), "exp": future, "ver": 1},
		"unknown version": {"sub": "u", "role": "student", "iat": t0.Unix(), "exp": future, "ver": 2},
		"no subject":      {"role": "student", "iat": t0.Unix(), "exp": future, "ver": 1},
		"exp before iat":  {"sub": "u", "role": "student", "iat": t0.Add(2 * time.Hour).Unix(), "exp": future, "ver": 1},
		"no iat":          {"sub": "u", "role": "student", "exp": future, "ver": 1},
		"exp before iat, already passed": {
			"sub": "u", "role": "student", "iat": t0.Unix(), "exp": t0.Add(-time.Hour).Unix(), "ver": 1,
		},
		"unknown role, already expired": {
			"sub": "u", "role": "janitor", "iat": t0.Add(-2 * time.Hour).Unix(), "exp": t0.Add(-time.Hour).Unix(), "ver": 1,
		},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(signRaw(t, claims, ""))
			assert.ErrorIs(t, err, models.ErrTokenMalformed)
		})
	}

	t.Run("no exp", func(t *testing.T) {
		_, err := iss.Verify(signRaw(t, jwt.MapClaims{"sub": "u", "role": "student", "iat": t0.Unix(), "ver": 1}, ""))
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})
}

func TestVerify_UnrecognizedAlgorithmHeader(t *testing.T) {
	now := t0
	iss := newIssuer(t, &now)

	claims := jwt.MapClaims{"sub": "u", "role": "student", "iat": t0.Unix(), "exp": t0.Add(time.Hour).Unix(), "ver": 1}
	_, err := iss.Verify(signRaw(t, claims, "HS512"))
	assert.ErrorIs(t, err, models.ErrTokenBadSignature)

	_, err = iss.Verify(signRaw(t, claims, "none"))
	assert.ErrorIs(t, err, models.ErrTokenBadSignature)
}

func TestIssue_RejectsUnknownRole(t *testing.T) {
	now := t0
	iss := newIssuer(t, &now)
	_, _, err := iss.Issue(&models.User{ID: "u", Role: "janitor"})
	assert.Error(t, err)
	_, _, err = iss.Issue(&models.User{Role: models.RoleStudent})
	assert.Error(t, err)
}
