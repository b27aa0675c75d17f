package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	secret string
	email  string
	path   string
}

func newPurgeServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.secret = r.Header.Get("X-Purge-Secret")
		got.path = r.URL.Path

		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		got.email = req["email"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, got
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestPurgeByEmail_PrintsReport(t *testing.T) {
	srv, got := newPurgeServer(t, http.StatusOK, `{"status":"purged","report":{"stage":"committed","root_rows":1}}`)

	out, err := run(t, "purge-by-email", "--endpoint", srv.URL, "--secret", "s3cret", "--email", "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, purgePath, got.path)
	assert.Equal(t, "s3cret", got.secret)
	assert.Equal(t, "ada@example.com", got.email)
	assert.Contains(t, out, `"stage": "committed"`)
}

func TestPurgeByEmail_NonOKIsAnError(t *testing.T) {
	srv, _ := newPurgeServer(t, http.StatusForbidden, `{"error":"bad_secret","message":"invalid purge secret"}`)

	out, err := run(t, "purge-by-email", "--endpoint", srv.URL, "--secret", "guess", "--email", "ada@example.com")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "status=403")
	assert.Contains(t, out, "bad_secret")
}

func TestPurgeByEmail_SecretFromEnvironment(t *testing.T) {
	srv, got := newPurgeServer(t, http.StatusOK, `{"status":"purged"}`)
	t.Setenv("PURGECTL_SECRET", "from-env")
	t.Setenv("PURGECTL_ENDPOINT", srv.URL)

	_, err := run(t, "purge-by-email", "--email", "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, "from-env", got.secret)
}

func TestPurgeByEmail_ConfigFile(t *testing.T) {
	srv, got := newPurgeServer(t, http.StatusOK, `{"status":"purged"}`)

	path := filepath.Join(t.TempDir(), "purgectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: "+srv.URL+"\nsecret: from-file\n"), 0o600))

	_, err := run(t, "purge-by-email", "--config", path, "--email", "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, "from-file", got.secret)
}

func TestPurgeByEmail_RequiresSecretAndEmail(t *testing.T) {
	_, err := run(t, "purge-by-email", "--email", "ada@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret is required")

	_, err = run(t, "purge-by-email", "--secret", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email is required")
}
