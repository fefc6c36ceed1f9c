package tracker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slimelist/internal/auth"
	"slimelist/internal/catalog"
	"slimelist/internal/library"
	"slimelist/internal/testsupport"
	"slimelist/internal/tracker"
	"slimelist/pkg/models"
)

type fakeCatalog map[int]models.CatalogEntry

func (f fakeCatalog) GetByID(_ context.Context, id int) (*models.CatalogEntry, error) {
	e, ok := f[id]
	if !ok {
		return nil, &catalog.RemoteError{StatusCode: http.StatusNotFound, Path: "/anime"}
	}
	return &e, nil
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := tracker.NewService(library.NewRepo(testsupport.OpenDB(t)), nil, nil, nil)
	lookup := fakeCatalog{52991: testsupport.Frieren(), 21: testsupport.OnePiece()}

	r := gin.New()
	api := r.Group("/", func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: "u1"})
		c.Next()
	})
	tracker.NewHandler(svc, lookup, nil).RegisterRoutes(api)
	return r
}

func send(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEntry(t *testing.T, w *httptest.ResponseRecorder) models.ListEntry {
	t.Helper()
	var e models.ListEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

func TestHandlerLifecycle(t *testing.T) {
	r := newRouter(t)

	w := send(r, http.MethodPost, "/list", gin.H{"anime_id": 52991, "status": "watching", "episodes_watched": 26})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	added := decodeEntry(t, w)
	assert.Equal(t, 28, added.TotalEpisodes)
	assert.Equal(t, "Sousou no Frieren", added.Title)

	w = send(r, http.MethodPost, "/list/52991/episodes", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 27, decodeEntry(t, w).EpisodesWatched)

	w = send(r, http.MethodPatch, "/list/52991", gin.H{"status": "dropped", "delta": 1, "score": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decodeEntry(t, w)
	assert.Equal(t, models.StatusCompleted, patched.Status)
	assert.Equal(t, 10, *patched.Score)

	w = send(r, http.MethodGet, "/list?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = send(r, http.MethodGet, "/list/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed":1`)

	w = send(r, http.MethodGet, "/list/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "52991,Sousou no Frieren,completed,28,28,10")

	w = send(r, http.MethodDelete, "/list/52991", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodGet, "/list/52991", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = send(r, http.MethodDelete, "/list/52991", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerErrors(t *testing.T) {
	r := newRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown anime", http.MethodPost, "/list", gin.H{"anime_id": 999, "status": "watching"}, http.StatusNotFound},
		{"bad status", http.MethodPost, "/list", gin.H{"anime_id": 21, "status": "paused"}, http.StatusBadRequest},
		{"bad score", http.MethodPost, "/list", gin.H{"anime_id": 21, "status": "watching", "score": 11}, http.StatusBadRequest},
		{"not in list", http.MethodPost, "/list/21/episodes", gin.H{"delta": 1}, http.StatusNotFound},
		{"bad id", http.MethodPatch, "/list/abc", gin.H{"status": "watching"}, http.StatusBadRequest},
		{"empty patch", http.MethodPatch, "/list/21", gin.H{}, http.StatusBadRequest},
		{"bad filter", http.MethodGet, "/list?status=paused", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := send(r, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestHandlerImport(t *testing.T) {
	r := newRouter(t)

	csvBody := "anime_id,title,status,episodes_watched,total_episodes,score\n" +
		"21,One Piece,watching,1100,0,\n" +
		"52991,Sousou no Frieren,watching,28,28,10\n"
	req := httptest.NewRequest(http.MethodPost, "/list/import", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"imported":2}`, w.Body.String())

	w = send(r, http.MethodGet, "/list/52991", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCompleted, decodeEntry(t, w).Status)
}
