package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tailorbook/internal/clock"
	"github.com/smallbiznis/tailorbook/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.session", fx.Provide(NewManager))

const DefaultCookieName = "_sid"

// Manager owns the session cookie. The cookie carries the raw token; only
// its hash is kept server side.
type Manager struct {
	cookieName string
	secure     bool
	clock      clock.Clock
}

func NewManager(cfg config.Config, c clock.Clock) *Manager {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Manager{
		cookieName: DefaultCookieName,
		secure:     cfg.Auth.CookieSecure,
		clock:      c,
	}
}

// ReadToken returns the raw token from the request cookie.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// Set issues the cookie so the browser drops it when the session expires.
func (m *Manager) Set(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(m.clock.Now()) / time.Second)
	if maxAge <= 0 {
		m.Clear(c)
		return
	}
	m.write(c, token, maxAge)
}

func (m *Manager) Clear(c *gin.Context) {
	m.write(c, "", -1)
}

func (m *Manager) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, maxAge, "/", "", m.secure, true)
}
