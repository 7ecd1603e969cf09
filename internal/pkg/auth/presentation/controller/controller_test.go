package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheadapter "projectsync/internal/infrastructure/cache/adapter"
	mailer "projectsync/internal/infrastructure/mail"
	"projectsync/internal/logging"
	auth "projectsync/internal/pkg/auth/application/domain"
	"projectsync/internal/pkg/auth/application/usecase"
)

func init() { gin.SetMode(gin.TestMode) }

func TestExtractCredentialOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	r.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
	assert.Equal(t, "from-header", ExtractCredential(r, "token"))

	r.Header.Set("Authorization", "bearer  from-lower")
	assert.Equal(t, "from-lower", ExtractCredential(r, "token"))

	r.Header.Set("Authorization", "Basic dTpw")
	assert.Equal(t, "from-query", ExtractCredential(r, "token"))

	r.Header.Del("Authorization")
	assert.Equal(t, "from-query", ExtractCredential(r, "token"))

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", ExtractCredential(r, "token"))
	assert.Equal(t, "", ExtractCredential(r, "other"))
}

func TestRequireSession(t *testing.T) {
	tokens, err := usecase.NewSessionTokens("secret", time.Hour)
	require.NoError(t, err)

	engine := gin.New()
	engine.GET("/me", RequireSession(tokens, "token"), func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id.ID})
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := tokens.Issue(auth.Identity{ID: "u-9", Name: "Nina"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"u-9"}`, rec.Body.String())
}

type stubMailer struct{ err error }

func (s stubMailer) Send(context.Context, mailer.Message) error { return s.err }

func TestOtpControllerStatusCodes(t *testing.T) {
	cache := cacheadapter.NewMemoryCache()
	tokens, err := usecase.NewSessionTokens("secret", time.Hour)
	require.NoError(t, err)
	newEngine := func(m mailer.Sender) *gin.Engine {
		req := usecase.NewRequestOtpUseCase(cache, m, time.Minute)
		req.Generator = func() (string, error) { return "111222", nil }
		ctl := NewOtpController(req, usecase.NewVerifyOtpUseCase(cache, tokens), "token", logging.Discard())
		e := gin.New()
		e.POST("/otp", ctl.HandleRequest())
		e.POST("/otp/verify", ctl.HandleVerify())
		return e
	}
	post := func(e *gin.Engine, path, body string) int {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
		e.ServeHTTP(rec, r)
		return rec.Code
	}

	ok := newEngine(stubMailer{})
	assert.Equal(t, http.StatusBadRequest, post(ok, "/otp", `{}`))
	assert.Equal(t, http.StatusBadRequest, post(ok, "/otp", `{"email":"nope"}`))
	assert.Equal(t, http.StatusAccepted, post(ok, "/otp", `{"email":"a@b.io"}`))
	assert.Equal(t, http.StatusUnauthorized, post(ok, "/otp/verify", `{"email":"a@b.io","code":"999999"}`))
	assert.Equal(t, http.StatusOK, post(ok, "/otp/verify", `{"email":"a@b.io","code":"111222"}`))

	failing := newEngine(stubMailer{err: errors.New("down")})
	assert.Equal(t, http.StatusBadGateway, post(failing, "/otp", `{"email":"a@b.io"}`))
}

func TestVerifiedOtpOpensSession(t *testing.T) {
	cache := cacheadapter.NewMemoryCache()
	tokens, err := usecase.NewSessionTokens("secret", time.Hour)
	require.NoError(t, err)
	req := usecase.NewRequestOtpUseCase(cache, stubMailer{}, time.Minute)
	req.Generator = func() (string, error) { return "314159", nil }
	ctl := NewOtpController(req, usecase.NewVerifyOtpUseCase(cache, tokens), "token", logging.Discard())

	e := gin.New()
	e.POST("/otp", ctl.HandleRequest())
	e.POST("/otp/verify", ctl.HandleVerify())
	e.GET("/me", RequireSession(tokens, "token"), func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "email": id.Email})
	})
	post := func(path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
		e.ServeHTTP(rec, r)
		return rec
	}

	require.Equal(t, http.StatusAccepted, post("/otp", `{"email":"Ivy@Example.com"}`).Code)
	rec := post("/otp/verify", `{"email":"ivy@example.com","code":"314159"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Verified bool          `json:"verified"`
		Token    string        `json:"token"`
		User     auth.Identity `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Verified)
	require.NotEmpty(t, body.Token)
	assert.Equal(t, "ivy@example.com", body.User.Email)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, body.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Positive(t, cookie.MaxAge)

	me := httptest.NewRequest(http.MethodGet, "/me", nil)
	me.Header.Set("Authorization", "Bearer "+body.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+body.User.ID+`","email":"ivy@example.com"}`, rec.Body.String())

	me = httptest.NewRequest(http.MethodGet, "/me", nil)
	me.AddCookie(cookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, me)
	assert.Equal(t, http.StatusOK, rec.Code)
}
