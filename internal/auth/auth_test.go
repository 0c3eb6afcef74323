package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "auth_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())
	return database
}

func TestSeedAndValidateKey(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	require.NoError(t, SeedAdminKey(ctx, database, "admin", "hoops-secret"))
	// Seeding again is a no-op, not an overwrite.
	require.NoError(t, SeedAdminKey(ctx, database, "admin", "different"))

	key, err := ValidateKey(ctx, database, "hoops-secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", key.Name)

	_, err = ValidateKey(ctx, database, "different")
	assert.Error(t, err)
}

func TestRequireAPIKey(t *testing.T) {
	database := testDB(t)
	require.NoError(t, SeedAdminKey(context.Background(), database, "admin", "hoops-secret"))

	var sawKey string
	handler := RequireAPIKey(database, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if k := KeyFromContext(r.Context()); k != nil {
			sawKey = k.Name
		}
		w.WriteHeader(http.StatusOK)
	}))

	// No header.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer nope")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid key.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer hoops-secret")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", sawKey)
}
