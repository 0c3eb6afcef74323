// Package auth validates bearer API keys for the REST and tool APIs.
package auth

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/db"
)

const bcryptCost = 12

// HashKey hashes a plain-text API key using bcrypt cost 12.
func HashKey(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("auth.HashKey: %w", err)
	}
	return string(b), nil
}

// CheckKey compares a plain-text key against a bcrypt hash.
func CheckKey(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// SeedAdminKey creates the named API key if it does not exist yet.
// Existing keys are never overwritten, so a rotated ADMIN_API_KEY env var
// only takes effect after the old row is deleted.
func SeedAdminKey(ctx context.Context, database *db.DB, name, plain string) error {
	var count int
	if err := database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM api_keys WHERE name=?`, name).Scan(&count); err != nil {
		return fmt.Errorf("auth.SeedAdminKey: count: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := HashKey(plain)
	if err != nil {
		return err
	}
	_, err = database.ExecContext(ctx,
		`INSERT INTO api_keys (name, key_hash) VALUES (?,?)`, name, hash)
	if err != nil {
		return fmt.Errorf("auth.SeedAdminKey: insert: %w", err)
	}
	return nil
}

// ValidateKey checks a plain-text key against every stored hash and
// returns the matching key record.
func ValidateKey(ctx context.Context, database *db.DB, plain string) (*db.APIKey, error) {
	rows, err := database.QueryContext(ctx, `SELECT id, name, key_hash FROM api_keys`)
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateKey: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k db.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash); err != nil {
			continue
		}
		if CheckKey(plain, k.KeyHash) {
			return &k, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auth.ValidateKey: rows: %w", err)
	}
	return nil, sql.ErrNoRows
}

// RequireAPIKey is middleware that validates a Bearer token from the
// Authorization header.
func RequireAPIKey(database *db.DB, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			http.Error(w, `{"success":false,"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		key, err := ValidateKey(r.Context(), database, token)
		if err != nil {
			http.Error(w, `{"success":false,"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyAPIKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// KeyFromContext extracts the authenticated API key from the request context.
func KeyFromContext(ctx context.Context) *db.APIKey {
	k, _ := ctx.Value(contextKeyAPIKey).(*db.APIKey)
	return k
}

type contextKey int

const contextKeyAPIKey contextKey = iota
