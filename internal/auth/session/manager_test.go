package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestManagerSetUsesClockForMaxAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := NewManager(config.Config{Auth: config.AuthConfig{CookieSecure: true}}, clock.NewFakeClock(now))

	c, w := newTestContext()
	m.Set(c, "token-1", now.Add(time.Hour))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, "token-1", cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestManagerSetExpiredClears(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := NewManager(config.Config{}, clock.NewFakeClock(now))

	c, w := newTestContext()
	m.Set(c, "token-1", now.Add(-time.Minute))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestManagerReadToken(t *testing.T) {
	m := NewManager(config.Config{}, nil)

	c, _ := newTestContext()
	_, ok := m.ReadToken(c)
	assert.False(t, ok)

	c.Request.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "abc"})
	token, ok := m.ReadToken(c)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}
