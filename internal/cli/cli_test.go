package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/skillbox/internal/mockapi"
	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

type harness struct {
	runner *Runner
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	store  *mockapi.Store
	server *mockapi.Server
	url    string
}

func newHarness(t *testing.T, data mockapi.Data) *harness {
	t.Helper()
	st := mockapi.NewMemoryStore(data)
	srv := mockapi.NewServer(st, nil)
	ts := httptest.NewServer(srv.Handler(nil))
	t.Cleanup(ts.Close)

	var out, errOut bytes.Buffer
	dir := t.TempDir()
	return &harness{
		runner: &Runner{Stdout: &out, Stderr: &errOut, HomeDir: dir, WorkDir: dir},
		stdout: &out,
		stderr: &errOut,
		store:  st,
		server: srv,
		url:    ts.URL,
	}
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	return h.runner.Run(context.Background(), append([]string{"--api-url", h.url}, args...))
}

func seed() mockapi.Data {
	return mockapi.Data{
		Specifications: []model.Specification{
			{ID: model.NumericID(1), Name: "Billing", Description: "Monthly boxes"},
		},
		Requirements: []model.Requirement{
			{ID: model.NumericID(1), Name: "Collect invoices", Description: "Monthly export"},
			{ID: model.NumericID(2), Name: "Audit trail", IsCompleted: true},
		},
	}
}

func TestReqList(t *testing.T) {
	h := newHarness(t, seed())

	require.Equal(t, 0, h.run("req", "ls"), h.stderr.String())
	out := h.stdout.String()
	assert.Contains(t, out, "Collect invoices")
	assert.Contains(t, out, "Monthly export")
	assert.Contains(t, out, "Audit trail")
	assert.Contains(t, out, " 50%")
	assert.NotContains(t, out, "Pending")

	require.Equal(t, 0, h.run("req", "ls", "--group"))
	out = h.stdout.String()
	assert.Contains(t, out, "Pending")
	assert.Contains(t, out, "Done")
}

func TestReqListEmpty(t *testing.T) {
	h := newHarness(t, mockapi.Data{})
	require.Equal(t, 0, h.run("req", "ls"))
	assert.Contains(t, h.stdout.String(), "No requirements found.")
	assert.NotContains(t, h.stderr.String(), "Failed")
}

func TestUnreachableBackend(t *testing.T) {
	h := newHarness(t, seed())
	ts := httptest.NewServer(nil)
	ts.Close()
	h.url = ts.URL

	assert.Equal(t, 1, h.run("req", "ls"))
	assert.Contains(t, h.stderr.String(), "Failed to load requirements. Could not reach the server.")
	assert.Empty(t, h.stdout.String())
}

func TestSpecCreate(t *testing.T) {
	h := newHarness(t, mockapi.Data{})

	require.Equal(t, 0, h.run("spec", "create", "--name", "Onboarding", "--description", "First box"), h.stderr.String())
	assert.Contains(t, h.stdout.String(), "Specification saved.")
	assert.Contains(t, h.stdout.String(), "Onboarding")

	specs := h.store.Specifications()
	require.Len(t, specs, 1)
	assert.Equal(t, "First box", specs[0].Description)
}

func TestSpecCreateValidatesLocally(t *testing.T) {
	h := newHarness(t, mockapi.Data{})

	assert.Equal(t, 2, h.run("spec", "create", "--name", "Onboarding"))
	assert.Contains(t, h.stderr.String(), "Name and description are required.")
	assert.Equal(t, int64(0), h.server.Calls(), "nothing sent to the backend")
	assert.Empty(t, h.store.Specifications())
}

func TestSpecUpdateKeepsOmittedFields(t *testing.T) {
	h := newHarness(t, seed())

	require.Equal(t, 0, h.run("spec", "update", "1", "--name", "Billing v2"), h.stderr.String())
	got, ok := h.store.Specification(model.NumericID(1))
	require.True(t, ok)
	assert.Equal(t, "Billing v2", got.Name)
	assert.Equal(t, "Monthly boxes", got.Description)
}

func TestSpecShow(t *testing.T) {
	h := newHarness(t, seed())

	require.Equal(t, 0, h.run("spec", "show", "1"))
	assert.Contains(t, h.stdout.String(), "Billing")
	assert.Contains(t, h.stdout.String(), "Monthly boxes")

	assert.Equal(t, 1, h.run("spec", "show", "42"))
	assert.Contains(t, h.stderr.String(), "Failed to load specification.")
	assert.Contains(t, h.stderr.String(), "Specification not found.")
}

func TestSpecShowEmptyReply(t *testing.T) {
	for _, body := range []string{"{}", "null"} {
		t.Run(body, func(t *testing.T) {
			var puts atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPut {
					puts.Add(1)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			t.Cleanup(ts.Close)
			h := newHarness(t, mockapi.Data{})
			h.url = ts.URL

			require.Equal(t, 0, h.run("spec", "show", "5"), h.stderr.String())
			assert.Contains(t, h.stdout.String(), "Specification not found.")
			assert.NotContains(t, h.stdout.String(), "#")

			assert.Equal(t, 1, h.run("spec", "update", "5", "--name", "x"))
			assert.Contains(t, h.stderr.String(), "Specification not found.")
			assert.Zero(t, puts.Load())
		})
	}
}

func TestSpecList(t *testing.T) {
	h := newHarness(t, seed())
	require.Equal(t, 0, h.run("spec", "ls"))
	assert.Contains(t, h.stdout.String(), "#1")
	assert.Contains(t, h.stdout.String(), "Billing")

	h = newHarness(t, mockapi.Data{})
	require.Equal(t, 0, h.run("spec", "ls"))
	assert.Contains(t, h.stdout.String(), "No specifications yet.")
}

func TestTestCreate(t *testing.T) {
	h := newHarness(t, mockapi.Data{})

	assert.Equal(t, 2, h.run("test", "create", "--title", "Login"))
	assert.Contains(t, h.stderr.String(), "Title and description are required.")
	assert.Equal(t, int64(0), h.server.Calls())

	require.Equal(t, 0, h.run("test", "create", "--title", "Login", "--description", "Given a user"), h.stderr.String())
	assert.Contains(t, h.stdout.String(), "Test created.")
	require.Len(t, h.store.Tests(), 1)
	assert.Equal(t, "Login", h.store.Tests()[0].Title)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t, seed())
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"req", "ls", "--nope"}},
		{"missing id", []string{"spec", "show"}},
		{"extra args", []string{"version", "now"}},
		{"bad theme", []string{"--theme", "plaid", "req", "ls"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 2, h.run(tt.args...))
			assert.Contains(t, h.stderr.String(), "Usage:")
		})
	}
}

func TestFlagsFixInvalidConfigFile(t *testing.T) {
	h := newHarness(t, mockapi.Data{})
	cfgPath := filepath.Join(t.TempDir(), "skillbox.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ui:\n  theme: sepia\n"), 0o644))

	assert.Equal(t, 2, h.run("--config", cfgPath, "config", "show"))
	assert.Contains(t, h.stderr.String(), "ui.theme")

	require.Equal(t, 0, h.run("--config", cfgPath, "--theme", "mono", "config", "show"), h.stderr.String())
	assert.Contains(t, h.stdout.String(), "theme: mono")
}

func TestVersion(t *testing.T) {
	h := newHarness(t, mockapi.Data{})
	require.Equal(t, 0, h.run("version"))
	assert.Contains(t, h.stdout.String(), "skillbox version "+Version)
}

func TestConfigShowAndInit(t *testing.T) {
	h := newHarness(t, mockapi.Data{})

	cfgPath := filepath.Join(t.TempDir(), "skillbox.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ui:\n  theme: neon\n"), 0o644))

	require.Equal(t, 0, h.run("--config", cfgPath, "config", "show"), h.stderr.String())
	assert.Contains(t, h.stdout.String(), "theme: neon")
	assert.Contains(t, h.stdout.String(), h.url, "flag beats file")

	require.Equal(t, 0, h.run("config", "init"))
	_, err := os.Stat(filepath.Join(h.runner.HomeDir, ".config", "skillbox", "config.yaml"))
	assert.NoError(t, err)
}

func TestFlatLinesTruncatesBeforeStyling(t *testing.T) {
	long := strings.Repeat("n", 120)
	lines := flatLines([]model.Requirement{{ID: model.NumericID(1), Name: long, IsCompleted: true}})
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], ui.Truncate(long, 80))
	assert.NotContains(t, lines[0], strings.Repeat("n", 78))
}
