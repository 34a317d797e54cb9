package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/molo/molo-go/internal/crypto"
	"github.com/molo/molo-go/internal/repository"
	"github.com/molo/molo-go/internal/router"
	"github.com/molo/molo-go/internal/service"
)

type harness struct {
	t       *testing.T
	srv     *httptest.Server
	dir     string
	config  string
	entries *repository.MemoryEntryRepository
}

func newHarness(t *testing.T, configYAML string) *harness {
	t.Helper()
	hasher, err := crypto.NewHasher(crypto.AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	store := repository.NewMemoryEntryRepository()
	auth := service.NewAuthService(repository.NewMemoryCredentialRepository(), hasher, "test-secret", time.Hour, nil)
	srv := httptest.NewServer(router.New(router.Deps{Auth: auth, Entries: service.NewEntryService(store, nil)}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o600))

	return &harness{t: t, srv: srv, dir: dir, config: cfgPath, entries: store}
}

func (h *harness) run(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := &app{in: strings.NewReader(stdin), out: &out, errOut: &errOut, httpClient: h.srv.Client()}
	base := []string{"--config", h.config, "--server", h.srv.URL, "--token-db", filepath.Join(h.dir, "session.db")}
	code := a.run(context.Background(), append(base, args...))
	return code, out.String(), errOut.String()
}

func TestCLIWorkflow(t *testing.T) {
	h := newHarness(t, "")

	code, out, _ := h.run("", "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "initialized: false")
	assert.Contains(t, out, "logged out")

	code, _, errOut := h.run("pw\nother\n", "init")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Passwords do not match")

	code, _, _ = h.run("pw\npw\n", "init")
	require.Equal(t, 0, code)

	code, _, errOut = h.run("wrong\n", "login")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid password")

	code, _, errOut = h.run("", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Not logged in")

	code, out, _ = h.run("pw\n", "login")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Logged in for 1h0m0s")

	code, out, _ = h.run("Hello **world**\n", "write", "--id", "e1", "--title", "Day 1", "--date", "2024-01-01")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Saved e1")

	code, out, _ = h.run("", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "e1")
	assert.Contains(t, out, "Day 1")

	code, out, _ = h.run("Edited\n", "edit", "e1", "--title", "Day 1b", "--date", "2024-01-01")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Updated e1")

	code, out, _ = h.run("", "show", "e1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "# Day 1b")
	assert.Contains(t, out, "Edited")

	exportPath := filepath.Join(h.dir, "diary.html")
	code, _, _ = h.run("", "export", "--out", exportPath)
	require.Equal(t, 0, code)
	html, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h2>Day 1b</h2>")

	code, _, _ = h.run("", "delete", "e1")
	require.Equal(t, 0, code)
	code, _, errOut = h.run("", "show", "e1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Entry not found")

	code, _, _ = h.run("", "logout")
	require.Equal(t, 0, code)
	code, out, _ = h.run("", "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "logged out")
}

func TestCLISealedContent(t *testing.T) {
	h := newHarness(t, "seal:\n  enabled: true\n  work_factor: 10\n")

	_, _, _ = h.run("pw\npw\n", "init")
	code, _, _ := h.run("pw\n", "login")
	require.Equal(t, 0, code)

	code, _, _ = h.run("phrase\nDear diary\n", "write", "--id", "s1", "--title", "Secret")
	require.Equal(t, 0, code)

	stored, err := h.entries.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Content, "Dear diary")
	assert.Contains(t, stored.Content, "BEGIN AGE ENCRYPTED FILE")

	code, out, _ := h.run("phrase\n", "show", "s1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Dear diary")

	code, _, errOut := h.run("nope\n", "show", "s1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Wrong passphrase")
}

func TestCLIUsage(t *testing.T) {
	h := newHarness(t, "")

	code, _, errOut := h.run("")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: molo")

	code, _, errOut = h.run("", "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)
}
