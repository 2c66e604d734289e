package server

import (
	"github.com/gin-gonic/gin"
)

const contextUsernameKey = "username"

// AuthRequired gates record routes behind the session cookie. It is a no-op
// when auth is disabled.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.authsvc == nil || !s.authsvc.Enabled() {
			c.Next()
			return
		}

		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUsernameKey, session.Username)
		c.Next()
	}
}
