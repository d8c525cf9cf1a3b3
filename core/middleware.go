package core

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Context keys set by the user gate for downstream handlers.
const (
	ctxUserKey     = "user"
	ctxUsernameKey = "username"
)

const storeTimeout = 3 * time.Second

// RequireUser gates every catalog route. It resolves the bearer token from the
// appid query parameter against the credential store and attaches the user to
// the request context. Failures are pushed to the error boundary; the gate
// itself never writes a log entry.
func RequireUser(users UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("appid")
		if token == "" {
			fail(c, AuthErr("missing token"))
			return
		}

		u, err := users.FindByToken(c.Request.Context(), token)
		if err != nil {
			fail(c, DbErr("failed to resolve token", err))
			return
		}
		if u == nil || !u.IsAuthenticated {
			fail(c, AuthErr("not authenticated"))
			return
		}

		c.Set(ctxUserKey, u)
		c.Set(ctxUsernameKey, u.Username)
		c.Next()
	}
}

// RequireAdmin gates reporting and administrative routes. It re-resolves the
// token on its own, stateless with respect to the user gate.
func RequireAdmin(users UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.FindByToken(c.Request.Context(), c.Query("appid"))
		if err != nil {
			fail(c, DbErr("failed to resolve token", err))
			return
		}
		if u == nil || u.Role != RoleAdmin {
			fail(c, AuthErr("access denied"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by RequireUser, if any.
func CurrentUser(c *gin.Context) *User {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(*User); ok {
			return u
		}
	}
	return nil
}

// ActivityLogger appends a request-log row for every successfully gated
// request. The write runs in a detached goroutine after the handler has been
// dispatched; nothing on this path can change the client-visible response.
type ActivityLogger struct {
	users    UserRepository
	requests RequestLogRepository
	wg       sync.WaitGroup
}

func NewActivityLogger(users UserRepository, requests RequestLogRepository) *ActivityLogger {
	return &ActivityLogger{users: users, requests: requests}
}

// Middleware records the request once the downstream chain has run. Register
// it after the user gate so only gated requests are observed.
func (l *ActivityLogger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		l.Record(c.Query("appid"), c.Request.URL.Path)
	}
}

// Record resolves the requester by token and appends the entry. Resolution
// failure is silently non-fatal; append failure is logged for diagnostics only.
func (l *ActivityLogger) Record(token, endpoint string) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		u, err := l.users.FindByToken(ctx, token)
		if err != nil {
			log.Printf("activity log: token resolution failed: %v", err)
			return
		}
		if u == nil {
			return
		}
		if err := l.requests.Append(ctx, RequestLogEntry{Username: u.Username, Endpoint: endpoint}); err != nil {
			log.Printf("activity log: append failed: %v", err)
		}
	}()
}

// Wait blocks until all in-flight log writes have finished. Used on shutdown
// and by tests.
func (l *ActivityLogger) Wait() {
	l.wg.Wait()
}

// ErrorBoundary is the single place domain errors become HTTP responses. It
// maps the error kind to a status, writes the message, and best-effort appends
// an error-log row. The secondary write failure is only reported in logs.
func ErrorBoundary(errorLog ErrorLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		ae := AsAppError(c.Errors.Last().Err)
		status := ae.Status()
		if !c.Writer.Written() {
			c.JSON(status, gin.H{"errMsg": ae.Message})
		}

		entry := ErrorLogEntry{
			Endpoint: c.Request.URL.Path,
			Status:   status,
			Message:  ae.Message,
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := errorLog.Append(ctx, entry); err != nil {
			log.Printf("error log: append failed: %v", err)
		}
	}
}

// fail aborts the chain with a domain error for the boundary to handle.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
