package granola

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexjbarnes/granola-sync/internal/errors"
)

func writeSupabaseFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "supabase.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestReadAccessToken(t *testing.T) {
	path := writeSupabaseFile(t, `{"workos_tokens": "{\"access_token\": \"tok-123\", \"refresh_token\": \"r\"}"}`)

	token, err := ReadAccessToken(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestReadAccessToken_MissingFile(t *testing.T) {
	_, err := ReadAccessToken(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, errors.ErrTokenNotFound)
}

func TestReadAccessToken_MissingTokens(t *testing.T) {
	path := writeSupabaseFile(t, `{"other": 1}`)

	_, err := ReadAccessToken(path)
	assert.ErrorIs(t, err, errors.ErrTokenNotFound)
}

func TestReadAccessToken_EmptyAccessToken(t *testing.T) {
	path := writeSupabaseFile(t, `{"workos_tokens": "{\"access_token\": \"\"}"}`)

	_, err := ReadAccessToken(path)
	assert.ErrorIs(t, err, errors.ErrTokenNotFound)
}

func TestReadAccessToken_InvalidJSON(t *testing.T) {
	path := writeSupabaseFile(t, `not json at all`)

	_, err := ReadAccessToken(path)
	assert.ErrorIs(t, err, errors.ErrTokenNotFound)
}

func TestSupabaseToken_RereadsFile(t *testing.T) {
	path := writeSupabaseFile(t, `{"workos_tokens": "{\"access_token\": \"first\"}"}`)
	fn := SupabaseToken(path)

	token, err := fn()
	require.NoError(t, err)
	assert.Equal(t, "first", token)

	require.NoError(t, os.WriteFile(path, []byte(`{"workos_tokens": "{\"access_token\": \"second\"}"}`), 0o600))

	token, err = fn()
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("abc")()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}
