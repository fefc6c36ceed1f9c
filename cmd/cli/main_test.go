package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slimelist/pkg/models"
)

func runCLI(t *testing.T, baseURL, tokenPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--api", baseURL, "--token", tokenPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	require.NoError(t, saveToken(path, "abc"))
	tok, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, clearToken(path))
	require.NoError(t, clearToken(path), "clearing twice is fine")
	_, err = requireToken(path)
	assert.ErrorContains(t, err, "not logged in")

	assert.Error(t, saveToken(path, ""))
}

func TestWebsocketURL(t *testing.T) {
	got, err := websocketURL("https://list.example/api/", "/users/ws")
	require.NoError(t, err)
	assert.Equal(t, "wss://list.example/api/users/ws", got)

	got, err = websocketURL("http://localhost:8080", "/users/ws")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/users/ws", got)

	_, err = websocketURL("localhost", "/users/ws")
	assert.Error(t, err)
}

func TestDoJSONSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"anime not in list"}`)
	}))
	defer srv.Close()

	err := doJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL+"/users/list/1", "tok", nil, nil)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "anime not in list", apiErr.Msg)
}

func TestLoginSavesTokenAndListRendersTable(t *testing.T) {
	score := 9
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "frieren", body["username"])
			_ = json.NewEncoder(w).Encode(map[string]any{
				"user":       map[string]string{"id": "u1", "username": "frieren"},
				"token":      "tok-1",
				"expires_at": "2030-01-01T00:00:00Z",
			})
		case "/users/list":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "completed", r.URL.Query().Get("status"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"total": 1,
				"items": []models.ListEntry{{
					UserID: "u1", AnimeID: 52991, Title: "Sousou no Frieren",
					Status: models.StatusCompleted, EpisodesWatched: 28, TotalEpisodes: 28, Score: &score,
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tokenPath := filepath.Join(t.TempDir(), "token.json")

	out, err := runCLI(t, srv.URL, tokenPath, "auth", "login", "-u", "frieren", "-p", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as frieren")

	out, err = runCLI(t, srv.URL, tokenPath, "list", "show", "--status", "done")
	require.NoError(t, err)
	assert.Contains(t, out, "Sousou no Frieren")
	assert.Contains(t, out, "28/28")
	assert.Contains(t, out, "9")
}

func TestListCommandsRequireLogin(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "missing.json")
	_, err := runCLI(t, "http://127.0.0.1:1", tokenPath, "list", "stats")
	assert.ErrorContains(t, err, "not logged in")
}

func TestListSetRejectsEmptyChange(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, saveToken(tokenPath, "tok"))
	_, err := runCLI(t, "http://127.0.0.1:1", tokenPath, "list", "set", "52991")
	assert.ErrorContains(t, err, "nothing to change")

	_, err = runCLI(t, "http://127.0.0.1:1", tokenPath, "list", "add", "52991", "--status", "someday")
	assert.ErrorContains(t, err, "invalid status")
}

func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	err := writeStats(&buf, models.ListStats{
		Total:           3,
		ByStatus:        map[models.Status]int{models.StatusWatching: 2, models.StatusCompleted: 1},
		EpisodesWatched: 40,
		MeanScore:       7.5,
		Scored:          2,
	}, false)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "plan_to_watch")
	assert.Contains(t, out, "episodes watched: 40")
	assert.Contains(t, out, "7.50 (2 scored)")
}

func TestDescribeEvent(t *testing.T) {
	assert.Equal(t, "removed 21", describeEvent([]byte(`{"type":"list.remove","anime_id":21}`)))
	assert.Equal(t, "Frieren  watching  3/28",
		describeEvent([]byte(`{"type":"list.update","anime_id":52991,"entry":{"title":"Frieren","status":"watching","episodes_watched":3,"total_episodes":28}}`)))
	assert.True(t, strings.HasPrefix(describeEvent([]byte("not json")), "not json"))
}
