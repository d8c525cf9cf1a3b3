package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthStack(t *testing.T) (*gin.Engine, *fakeUserRepo, *fakeErrorLog) {
	t.Helper()
	users := newFakeUserRepo()
	errLog := &fakeErrorLog{}
	issuer := NewTokenIssuer("test-secret", users)
	accounts := NewRepositoryAccountService(users, issuer)
	return NewAuthRouter(Config{}, accounts, errLog), users, errLog
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAccountLifecycle(t *testing.T) {
	router, _, _ := newAuthStack(t)

	w := postJSON(router, "/register", `{"username":"alice","password":"s3cret","email":"a@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var registered User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.Equal(t, "alice", registered.Username)
	assert.Empty(t, registered.Token, "registration never hands out a token")

	w = postJSON(router, "/login", `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Header().Get("auth-token")
	require.NotEmpty(t, token)
	var loggedIn User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loggedIn))
	assert.Equal(t, token, loggedIn.Token)
	assert.True(t, loggedIn.IsAuthenticated)

	// A second login reuses the exact same token.
	w = postJSON(router, "/login", `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, token, w.Header().Get("auth-token"))

	w = postJSON(router, "/logout", `{"appid":"`+token+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out")
}

func TestRegisterRejectsBadInput(t *testing.T) {
	router, _, errLog := newAuthStack(t)

	w := postJSON(router, "/register", `{"username":"alice","password":"s3cret"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("duplicate username", func(t *testing.T) {
		w := postJSON(router, "/register", `{"username":"alice","password":"other"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "errMsg")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := postJSON(router, "/register", `{not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.NotEmpty(t, errLog.snapshot(), "failures land in the error log")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _, _ := newAuthStack(t)
	postJSON(router, "/register", `{"username":"alice","password":"s3cret"}`)

	t.Run("wrong password", func(t *testing.T) {
		w := postJSON(router, "/login", `{"username":"alice","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Header().Get("auth-token"))
	})

	t.Run("unknown user", func(t *testing.T) {
		w := postJSON(router, "/login", `{"username":"nobody","password":"s3cret"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLogoutRejectsUnknownToken(t *testing.T) {
	router, _, _ := newAuthStack(t)

	w := postJSON(router, "/logout", `{"appid":"no-such-token"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHealthzIsOpen(t *testing.T) {
	router, _, _ := newAuthStack(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
