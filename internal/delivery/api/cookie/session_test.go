package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatty/config"
	"chatty/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SetAndClear(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewSession(&config.Config{Cookie: &config.CookieConfig{Secure: true, SameSite: "none"}})
	s.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	s.Set(rec, &entity.Session{Token: "tok", ExpiresAt: now.Add(7 * 24 * time.Hour)})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "jwt", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)

	rec = httptest.NewRecorder()
	s.Clear(rec)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "jwt", cleared[0].Name)
	assert.Empty(t, cleared[0].Value)
	assert.Equal(t, -1, cleared[0].MaxAge)
	assert.True(t, cleared[0].HttpOnly)
}

func TestParseSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteLaxMode, parseSameSite("Lax"))
	assert.Equal(t, http.SameSiteStrictMode, parseSameSite("strict"))
	assert.Equal(t, http.SameSiteNoneMode, parseSameSite(""))
}
