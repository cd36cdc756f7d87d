package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mesto/internal/auth"
	"mesto/internal/cache"
	"mesto/internal/config"
	"mesto/internal/models"
	"mesto/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "password123"

type testEnv struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	mr    *miniredis.Miniredis
	store *testutil.MemoryStore
}

type envOptions struct {
	redis bool
	flags string
}

func testConfig(flags string) *config.Config {
	if flags == "" {
		flags = "uploads=on,card_feed=on"
	}
	return &config.Config{
		Env:            "test",
		Port:           "3000",
		AllowedOrigins: "http://localhost:5173",
		FeatureFlags:   flags,
	}
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	env := &testEnv{
		db:    testutil.NewSQLiteDB(t),
		store: testutil.NewMemoryStore(),
	}
	cfg := testConfig(opts.flags)

	var rdb *redis.Client
	if opts.redis {
		env.mr, rdb = testutil.NewRedis(t)
	}

	srv, err := NewServerWithDeps(cfg, env.db, rdb, env.store)
	require.NoError(t, err)
	t.Cleanup(func() { cache.SetClient(nil) })

	env.srv = srv
	env.app = srv.NewApp()
	return env
}

// do sends a JSON request, optionally authenticated with a session cookie.
func (e *testEnv) do(t *testing.T, method, path string, body any, cookie string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookie})
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) signup(t *testing.T, email string) models.User {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/signup", map[string]string{
		"email":    email,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Data
}

// login signs in and returns the session token from the jwt cookie.
func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/signin", map[string]string{
		"email":    email,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c.Value
		}
	}
	t.Fatal("signin response carries no session cookie")
	return ""
}

// newUser registers email and returns the user with a session token.
func (e *testEnv) newUser(t *testing.T, email string) (models.User, string) {
	t.Helper()
	user := e.signup(t, email)
	return user, e.login(t, email)
}

func decodeError(t *testing.T, body []byte) models.ErrorResponse {
	t.Helper()
	var out models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func hasKey(body []byte, key string) bool {
	return strings.Contains(string(body), `"`+key+`"`)
}
