package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/models"
	"docquery-ai/internal/utils"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

func (s *Server) handleLogin(c *gin.Context) {
	var req dtos.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	account, ok := s.accounts[req.Email]
	if !ok || bcrypt.CompareHashAndPassword(account.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, dtos.Response{
			Success: false,
			Error:   utils.ToStringPtr("Invalid email or password"),
		})
		return
	}

	if !s.issueSessionCookies(c, req.Email) {
		return
	}

	s.logger.Info("user logged in", zap.String("email", req.Email))
	c.JSON(http.StatusOK, dtos.SessionResponse{
		User:            &models.User{Email: req.Email, Role: account.role},
		IsAuthenticated: true,
	})
}

// handleRefresh rotates the session: the presented refresh token is
// consumed and a fresh access/refresh cookie pair is issued.
func (s *Server) handleRefresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, dtos.Response{
			Success: false,
			Error:   utils.ToStringPtr("Refresh token is required"),
		})
		return
	}

	email, err := s.jwt.ValidateToken(refreshToken)
	if err != nil || !s.tokens.ValidateRefreshToken(*email, refreshToken) {
		c.JSON(http.StatusUnauthorized, dtos.Response{
			Success: false,
			Error:   utils.ToStringPtr("Invalid or expired refresh token"),
		})
		return
	}

	s.tokens.DeleteRefreshToken(*email, refreshToken)
	if !s.issueSessionCookies(c, *email) {
		return
	}

	s.logger.Debug("session refreshed", zap.String("email", *email))
	c.JSON(http.StatusOK, dtos.Response{Success: true})
}

func (s *Server) handleLogout(c *gin.Context) {
	if refreshToken, err := c.Cookie(refreshTokenCookie); err == nil && refreshToken != "" {
		if email, err := s.jwt.ValidateToken(refreshToken); err == nil {
			s.tokens.DeleteRefreshToken(*email, refreshToken)
		}
	}

	c.SetCookie(accessTokenCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, dtos.Response{Success: true})
}

func (s *Server) handleSession(c *gin.Context) {
	email := c.GetString("email")
	account, ok := s.accounts[email]
	if !ok {
		c.JSON(http.StatusUnauthorized, dtos.Response{
			Success: false,
			Error:   utils.ToStringPtr("Unknown user"),
		})
		return
	}

	c.JSON(http.StatusOK, dtos.SessionResponse{
		User:            &models.User{Email: email, Role: account.role},
		IsAuthenticated: true,
	})
}

func (s *Server) issueSessionCookies(c *gin.Context, email string) bool {
	accessToken, err := s.jwt.GenerateToken(email)
	if err != nil {
		s.internalError(c, "failed to generate access token", err)
		return false
	}
	refreshToken, err := s.jwt.GenerateRefreshToken(email)
	if err != nil {
		s.internalError(c, "failed to generate refresh token", err)
		return false
	}
	if err := s.tokens.StoreRefreshToken(email, *refreshToken); err != nil {
		s.internalError(c, "failed to store refresh token", err)
		return false
	}

	c.SetCookie(accessTokenCookie, *accessToken, int(s.cfg.AccessTokenTTL.Seconds()), "/", "", false, true)
	c.SetCookie(refreshTokenCookie, *refreshToken, int(s.cfg.RefreshTokenTTL.Seconds()), "/", "", false, true)
	return true
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, dtos.Response{
		Success: false,
		Error:   utils.ToStringPtr(msg),
	})
}
