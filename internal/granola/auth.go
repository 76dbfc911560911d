package granola

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/alexjbarnes/granola-sync/internal/errors"
)

// ReadAccessToken extracts the WorkOS access token from the Granola
// desktop app's supabase.json credential file. The workos_tokens value
// is itself a JSON-encoded string, so it needs a second decode.
func ReadAccessToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", errors.ErrTokenNotFound, path, err)
	}

	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%w: %s is not valid JSON", errors.ErrTokenNotFound, path)
	}

	tokens := gjson.GetBytes(data, "workos_tokens")
	if !tokens.Exists() {
		return "", fmt.Errorf("%w: workos_tokens missing from %s", errors.ErrTokenNotFound, path)
	}

	// workos_tokens is double-encoded: a JSON string holding JSON.
	access := gjson.Get(tokens.String(), "access_token")
	if !access.Exists() || access.String() == "" {
		return "", fmt.Errorf("%w: access_token missing from workos_tokens", errors.ErrTokenNotFound)
	}

	return access.String(), nil
}

// TokenFunc supplies a bearer token for each API request.
type TokenFunc func() (string, error)

// StaticToken returns a TokenFunc that always yields the given token.
func StaticToken(token string) TokenFunc {
	return func() (string, error) {
		return token, nil
	}
}

// SupabaseToken returns a TokenFunc that re-reads the credential file
// on every call, since the desktop app rotates tokens periodically.
func SupabaseToken(path string) TokenFunc {
	return func() (string, error) {
		return ReadAccessToken(path)
	}
}
