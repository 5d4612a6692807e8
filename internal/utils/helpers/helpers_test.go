package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	Unauthorized(rec)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = httptest.NewRecorder()
	Unavailable(rec)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	JSON(rec, http.StatusAccepted, map[string]bool{"accepted": true})
	assert.JSONEq(t, `{"data":{"accepted":true}}`, rec.Body.String())
}

func TestBuildPasswordResetHTML(t *testing.T) {
	body := BuildPasswordResetHTML(`https://portal.college.edu/reset-password?token=a"b&c`, time.Hour)
	assert.Contains(t, body, "token=a&#34;b&amp;c")
	assert.Contains(t, body, "1 ч.")
	assert.False(t, strings.Contains(body, `a"b`))

	assert.Contains(t, BuildPasswordResetHTML("x", 30*time.Minute), "30 мин.")
}
