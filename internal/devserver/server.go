// Package devserver is a protocol-faithful stub of the DocQuery backend:
// cookie-based auth with rotating refresh tokens, the SSE query stream and
// the document endpoints. It exists so the client pipeline can be run and
// integration tested without the real RAG service; answers are canned, not
// generated.
package devserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/middleware"
	"docquery-ai/internal/models"
	"docquery-ai/internal/utils"
)

type FixtureUser struct {
	Email    string
	Password string
	Role     string
}

type Config struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CorsOrigin      string
	Users           []FixtureUser

	// TokenDelay paces the canned token events so streaming looks live in
	// the terminal. Zero (the test default) emits as fast as the writer
	// flushes.
	TokenDelay time.Duration
}

type fixtureAccount struct {
	passwordHash []byte
	role         string
}

type Server struct {
	cfg      Config
	engine   *gin.Engine
	jwt      utils.JWTService
	tokens   TokenStore
	logger   *zap.Logger
	accounts map[string]fixtureAccount

	docMu     sync.RWMutex
	documents map[string]models.Document
}

func New(cfg Config, logger *zap.Logger) (*Server, error) {
	accounts := make(map[string]fixtureAccount, len(cfg.Users))
	for _, u := range cfg.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		accounts[u.Email] = fixtureAccount{passwordHash: hash, role: u.Role}
	}

	s := &Server{
		cfg:       cfg,
		jwt:       utils.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		tokens:    NewTokenStore(cfg.RefreshTokenTTL),
		logger:    logger,
		accounts:  accounts,
		documents: make(map[string]models.Document),
	}
	s.engine = s.buildEngine()
	return s, nil
}

// Handler exposes the engine for httptest servers and for mounting.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Run(addr string) error { return s.engine.Run(addr) }

func (s *Server) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.Recovery(s.logger))

	if s.cfg.CorsOrigin != "" {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     []string{s.cfg.CorsOrigin},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dtos.Response{
			Success: true,
			Data:    "Server is healthy!",
		})
	})

	auth := engine.Group("/api/auth")
	{
		auth.POST("/login", s.handleLogin)
		auth.POST("/refresh", s.handleRefresh)
		auth.POST("/logout", s.handleLogout)
	}

	protectedAuth := engine.Group("/api/auth")
	protectedAuth.Use(s.authMiddleware())
	{
		protectedAuth.GET("/session", s.handleSession)
	}

	v1 := engine.Group("/api/v1")
	v1.Use(s.authMiddleware())
	{
		v1.POST("/query/stream", s.handleQueryStream)
		v1.POST("/documents/upload", s.handleDocumentUpload)
		v1.GET("/documents", s.handleDocumentList)
		v1.DELETE("/documents/:id", s.handleDocumentDelete)
	}

	return engine
}

// authMiddleware guards protected routes with the access-token cookie. A
// missing or expired cookie yields the 401 that drives the client's
// refresh-and-retry path.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(accessTokenCookie)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, dtos.Response{
				Success: false,
				Error:   utils.ToStringPtr("Access token is required"),
			})
			c.Abort()
			return
		}

		email, err := s.jwt.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, dtos.Response{
				Success: false,
				Error:   utils.ToStringPtr("Invalid or expired token"),
			})
			c.Abort()
			return
		}

		c.Set("email", *email)
		c.Next()
	}
}
