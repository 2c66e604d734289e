package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/tailorbook/internal/auth/domain"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if errors.Is(err, authdomain.ErrAuthDisabled) {
		c.JSON(http.StatusOK, gin.H{"authenticated": true})
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) Me(c *gin.Context) {
	if !s.authsvc.Enabled() {
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "authEnabled": false})
		return
	}

	token, ok := s.sessions.ReadToken(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "authEnabled": true})
		return
	}
	if _, err := s.authsvc.Authenticate(c.Request.Context(), token); err != nil {
		s.sessions.Clear(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "authEnabled": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": true, "authEnabled": true})
}
