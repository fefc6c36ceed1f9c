package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slimelist/internal/auth"
	"slimelist/internal/testsupport"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := auth.NewRepo(testsupport.OpenDB(t))
	tokens := auth.TokenService{Secret: []byte("test-secret"), Issuer: "slimelist", Duration: time.Hour}

	r := gin.New()
	auth.NewHandler(repo, tokens).RegisterRoutes(r.Group("/auth"))
	r.GET("/me", auth.Middleware(tokens, repo), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": auth.MustGetClaims(c).UserID})
	})
	return r
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type tokenResp struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) tokenResp {
	t.Helper()
	var out tokenResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRegisterLoginLogout(t *testing.T) {
	r := newRouter(t)
	creds := gin.H{"username": "frieren", "password": "zoltraak123"}

	w := do(r, http.MethodPost, "/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode(t, w)
	assert.NotEmpty(t, registered.User.ID)

	w = do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "FRIEREN", "password": "another-pass"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/auth/login", "", gin.H{"username": "frieren", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code)
	login := decode(t, w)
	assert.Equal(t, registered.User.ID, login.User.ID)

	w = do(r, http.MethodGet, "/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), registered.User.ID)

	w = do(r, http.MethodPost, "/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "logout revokes earlier tokens")
	w = do(r, http.MethodGet, "/me", registered.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "ab", "password": "longenough"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "himmel", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddlewareAcceptsQueryToken(t *testing.T) {
	r := newRouter(t)
	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "fern", "password": "zoltraak123"})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode(t, w).Token

	req := httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	w = do(r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordRevokesTokens(t *testing.T) {
	r := newRouter(t)
	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "stark", "password": "old-password"})
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode(t, w).Token

	w = do(r, http.MethodPost, "/auth/change-password", token, gin.H{"old_password": "old-password", "new_password": "new-password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/login", "", gin.H{"username": "stark", "password": "new-password"})
	assert.Equal(t, http.StatusOK, w.Code)
}
