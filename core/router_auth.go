package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewAuthRouter constructs the Gin engine for the account surface: register,
// login, logout. Failures flow through the same error boundary as the catalog
// server, so they land in the shared error log.
func NewAuthRouter(cfg Config, accounts AccountService, errorLog ErrorLogRepository) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware(cfg))
	r.Use(ErrorBoundary(errorLog))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/register", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Email    string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, BadRequest("invalid json body"))
			return
		}
		u, err := accounts.Register(c.Request.Context(), req.Username, req.Password, req.Email)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	})

	r.POST("/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, AuthErr("please provide username and password"))
			return
		}
		u, err := accounts.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			fail(c, err)
			return
		}
		// The session token travels in a response header; the body is the
		// updated user record.
		c.Header("auth-token", u.Token)
		c.JSON(http.StatusOK, u)
	})

	r.POST("/logout", func(c *gin.Context) {
		var req struct {
			AppID string `json:"appid"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, AuthErr("missing token"))
			return
		}
		if err := accounts.Logout(c.Request.Context(), req.AppID); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Logged out"})
	})

	return r
}
