package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoginCommand_NoOAuthClient(t *testing.T) {
	cmd := &commands.LoginCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	assert.Equal(t, exitcode.AuthError, code)
	assert.Empty(t, outBuf.String())
	assert.Contains(t, errBuf.String(), "oauth_client.json not found")
	assert.Contains(t, errBuf.String(), "tasksync login")
}

// A token that cannot be refreshed must not short-circuit the login flow.
func TestLoginCommand_UnusableToken(t *testing.T) {
	tokens := map[string]string{
		"no refresh token": `{"access_token":"expired","token_type":"Bearer"}`,
		"expired":          `{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`,
		"corrupt":          `{not json`,
	}

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "oauth_client.json", testOAuthClient)
			writeFile(t, dir, "token.json", token)

			var outBuf, errBuf bytes.Buffer
			cfg := &config.Config{Dir: dir}

			// Cancelled up front so the callback wait returns immediately.
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_ = (&commands.LoginCmd{}).Run(ctx, cfg, nil, nil, &outBuf, &errBuf)

			assert.NotEqual(t, "already logged in\n", outBuf.String())
		})
	}
}

func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	cmd := &commands.LogoutCmd{}

	dir := t.TempDir()
	oauthPath := writeFile(t, dir, "oauth_client.json", testOAuthClient)
	tokenPath := writeFile(t, dir, "token.json", `{"access_token":"test","refresh_token":"test"}`)

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: dir}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, errBuf.String())
	assert.Equal(t, "ok\n", outBuf.String())
	assert.NoFileExists(t, tokenPath)
	assert.FileExists(t, oauthPath)
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	for _, quiet := range []bool{false, true} {
		var outBuf, errBuf bytes.Buffer
		cfg := &config.Config{Dir: t.TempDir(), Quiet: quiet}

		code := (&commands.LogoutCmd{}).Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

		assert.Equal(t, exitcode.Success, code)
		assert.Empty(t, errBuf.String())
		if quiet {
			assert.Empty(t, outBuf.String())
		} else {
			assert.Equal(t, "not logged in\n", outBuf.String())
		}
	}
}
