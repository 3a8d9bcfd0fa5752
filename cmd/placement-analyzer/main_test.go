package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/internal/testutil"
)

const testRoster = "first_name,last_name,email,headline\n" +
	"Asha,Rao,asha@example.com,Final year CSE\n" +
	"Vikram,Iyer,vikram@example.com,Final year ECE\n" +
	"Meera,Nair,meera@example.com,Final year ME\n"

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// cliEnv points the CLI at a mock model and an unreachable Redis.
func cliEnv(t *testing.T) *testutil.MockGemini {
	t.Helper()
	gemini := testutil.NewMockGemini()
	t.Cleanup(gemini.Close)

	t.Setenv("PLACEMENT_GEMINI_BASE_URL", gemini.URL())
	t.Setenv("PLACEMENT_GEMINI_MAX_ATTEMPTS", "1")
	t.Setenv("PLACEMENT_CACHE_ENABLED", "false")
	t.Setenv("PLACEMENT_REDIS_ADDR", "127.0.0.1:1")
	t.Setenv("PLACEMENT_LOG_LEVEL", "error")
	t.Setenv("PLACEMENT_CANDIDATES_BASE_URL", "")
	return gemini
}

func writeRoster(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "students.csv")
	require.NoError(t, os.WriteFile(path, []byte(testRoster), 0o644))
	return path
}

func TestAnalyzeWritesOutputs(t *testing.T) {
	gemini := cliEnv(t)
	gemini.SetBehavior("bad-key", testutil.BehaviorInvalidKey)

	dir := t.TempDir()
	out := filepath.Join(dir, "processed.csv")
	statsCSV := filepath.Join(dir, "stats.csv")
	statsXLSX := filepath.Join(dir, "stats.xlsx")
	reportMD := filepath.Join(dir, "report.md")
	reportHTML := filepath.Join(dir, "report.html")

	stdout, stderr, err := runCLI(t, "analyze", writeRoster(t),
		"--key", "bad-key", "--key", "good-key",
		"--batch-size", "2",
		"-o", out,
		"--stats-csv", statsCSV,
		"--stats-xlsx", statsXLSX,
		"--report", reportMD,
		"--report-html", reportHTML,
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Asha Rao")
	assert.Contains(t, stdout, "Acme Corp")
	assert.Contains(t, stderr, "Processed 3/3 students (100%)")
	assert.Contains(t, stderr, "1 key rotations")

	processed, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(processed)), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "placedCompany")

	statsData, err := os.ReadFile(statsCSV)
	require.NoError(t, err)
	assert.Contains(t, string(statsData), "Key Placement Statistics")

	info, err := os.Stat(statsXLSX)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	md, err := os.ReadFile(reportMD)
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultReport, string(md))

	html, err := os.ReadFile(reportHTML)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<table>")

	// bad-key once, then good-key for both batches and the report.
	assert.Equal(t, []string{"bad-key", "good-key", "good-key", "good-key"}, gemini.KeysUsed())
}

func TestAnalyzeExhaustedKeys(t *testing.T) {
	gemini := cliEnv(t)
	gemini.SetDefaultBehavior(testutil.BehaviorInvalidKey)

	out := filepath.Join(t.TempDir(), "processed.csv")
	_, _, err := runCLI(t, "analyze", writeRoster(t), "-k", "k1", "-k", "k2", "-o", out, "-q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 of 3 students processed")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAnalyzeWithoutKeysNeedsStore(t *testing.T) {
	cliEnv(t)

	_, _, err := runCLI(t, "analyze", writeRoster(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key store is unavailable")
}

func TestAnalyzeMissingRoster(t *testing.T) {
	cliEnv(t)

	_, _, err := runCLI(t, "analyze", filepath.Join(t.TempDir(), "missing.csv"), "-k", "k1")
	require.Error(t, err)
}

func TestKeysRequireRedis(t *testing.T) {
	cliEnv(t)

	_, _, err := runCLI(t, "keys", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestRender(t *testing.T) {
	cliEnv(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "report.md")
	out := filepath.Join(dir, "report.html")
	require.NoError(t, os.WriteFile(in, []byte(testutil.DefaultReport), 0o644))

	_, _, err := runCLI(t, "render", in, "--out", out)
	require.NoError(t, err)

	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Placement Report: Executive Summary</h1>")

	stdout, _, err := runCLI(t, "render", in)
	require.NoError(t, err)
	assert.Equal(t, string(html), stdout)
}

func TestCandidates(t *testing.T) {
	cliEnv(t)
	mock := testutil.NewMockCandidates("secret",
		testutil.MockCandidateList{
			ID:   "l1",
			Name: "Campus Drive 2024",
			Candidates: []map[string]any{
				testutil.NewMockCandidate("c1", "Asha", "Rao", "SDE Intern", ""),
			},
		},
		testutil.MockCandidateList{ID: "l2", Name: "Lateral Hires"},
	)
	t.Cleanup(mock.Close)
	t.Setenv("PLACEMENT_CANDIDATES_BASE_URL", mock.URL())
	t.Setenv("PLACEMENT_CANDIDATES_TOKEN", "secret")

	stdout, _, err := runCLI(t, "candidates", "lists", "--search", "campus")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Campus Drive 2024")
	assert.NotContains(t, stdout, "Lateral Hires")

	stdout, _, err = runCLI(t, "candidates", "fetch", "l1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Asha Rao")
	assert.Contains(t, stdout, "ui-avatars.com")
	assert.Contains(t, stdout, "1 candidates")

	_, _, err = runCLI(t, "candidates", "fetch", "missing")
	require.Error(t, err)
}

func TestCandidatesNotConfigured(t *testing.T) {
	cliEnv(t)

	_, _, err := runCLI(t, "candidates", "lists")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestCachePurgeValidatesMode(t *testing.T) {
	cliEnv(t)

	_, _, err := runCLI(t, "cache", "purge", "--mode", "everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")

	_, _, err = runCLI(t, "cache", "purge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}
