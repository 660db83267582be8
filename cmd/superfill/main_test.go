package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweta-tw/superfill.ai/internal/memory"
	"github.com/sweta-tw/superfill.ai/internal/types"
	"github.com/sweta-tw/superfill.ai/internal/usage"
)

const signupPage = `<!doctype html>
<html><body>
<form id="signup" action="/join" method="post">
  <div><label for="email">Email Address</label> <input id="email" type="email" name="email"></div>
  <div><label for="pw">Password</label> <input id="pw" type="password" name="pw"></div>
  <div><label for="book">Favorite Book</label> <input id="book" type="text" name="book"></div>
</form>
</body></html>`

const recordFile = `records:
  - id: r1
    question: what's your email
    answer: a@b.com
    category: contact
  - id: r2
    question: Home address
    answer: 1 Main St
    category: address
`

func resetFlags() {
	configPath = filepath.Join(".superfill", "config.yaml")
	verbose, noColor = false, true
	storePath = ""
	timeout = 2 * time.Minute
	detectURL, detectWatch, detectJSON, detectJobs = "", false, false, 4
	matchRecords, matchURL, matchAcceptAuto, matchAccept, matchJSON, matchAlternatives = "", "", false, nil, false, false
	matchFill = false
	recordID, recordQuestion, recordCategory, recordTags = "", "", "general", nil
	recordsLimit, recordsJSON = 0, false
	snapshotOut = ""
	statsJSON = false
}

// execute runs the CLI in an isolated directory with rule-based matching.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GROQ_API_KEY", "DEEPSEEK_API_KEY", "GEMINI_API_KEY", "SUPERFILL_LLM_PROVIDER"} {
		t.Setenv(env, "")
	}
	t.Setenv("SUPERFILL_THRESHOLD", "0.7")
	t.Setenv("SUPERFILL_STORE", filepath.Join(dir, "store", "records.db"))
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestMatch_AcceptAuto(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "signup.html", signupPage)
	records := writeFile(t, dir, "records.yaml", recordFile)

	out, err := execute(t, dir, "match", page, "--records", records, "--accept-auto", "--json")
	require.NoError(t, err)

	var res matchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "completed", res.Phase)
	assert.Equal(t, "rule-based", res.Match.Strategy)
	assert.Equal(t, 3, res.Detection.TotalFields)
	require.Len(t, res.Match.Mappings, 2)
	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "r1", res.Accepted[0].RecordID)
	assert.Equal(t, "a@b.com", res.Accepted[0].Value)
}

func TestMatch_Table(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "signup.html", signupPage)
	records := writeFile(t, dir, "records.yaml", recordFile)

	out, err := execute(t, dir, "match", page, "--records", records)
	require.NoError(t, err)
	assert.Contains(t, out, "strategy=rule-based")
	assert.Contains(t, out, "a@b.com")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "(threshold 0.70)")
}

func TestMatch_NeedsOneSource(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "match")
	assert.Error(t, err)
}

func TestMatch_FillNeedsURL(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "signup.html", signupPage)
	records := writeFile(t, dir, "records.yaml", recordFile)

	_, err := execute(t, dir, "match", page, "--records", records, "--accept-auto", "--fill")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--fill needs a live page")
}

func TestDetect_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.html", signupPage)
	b := writeFile(t, dir, "b.html", `<html><body><input name="q" placeholder="Search"></body></html>`)
	missing := filepath.Join(dir, "missing.html")

	out, err := execute(t, dir, "detect", a, b, "--json")
	require.NoError(t, err)

	var results []pageResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, a, results[0].Source)
	assert.Equal(t, 3, results[0].Result.TotalFields)
	assert.Equal(t, b, results[1].Source)
	require.Len(t, results[1].Result.Forms, 1)
	assert.Equal(t, types.StandaloneFormID, results[1].Result.Forms[0].ID)

	_, err = execute(t, dir, "detect", a, missing)
	assert.Error(t, err)
}

func TestRecords_AddImportList(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "records.db")
	records := writeFile(t, dir, "records.yaml", recordFile)

	out, err := execute(t, dir, "--store", db, "records", "add", "Jane", "--id", "name", "-q", "Full name", "--category", "Personal")
	require.NoError(t, err)
	assert.Equal(t, "name\n", out)

	out, err = execute(t, dir, "--store", db, "records", "import", records)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 of 2 records")

	out, err = execute(t, dir, "--store", db, "records", "list", "--json")
	require.NoError(t, err)
	var listed []memory.Record
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 3)

	byID := map[string]memory.Record{}
	for _, r := range listed {
		byID[r.ID] = r
	}
	assert.Equal(t, "personal", byID["name"].Category)
	assert.Equal(t, "a@b.com", byID["r1"].Answer)

	_, err = execute(t, dir, "--store", db, "records", "delete", "r2")
	require.NoError(t, err)
	out, err = execute(t, dir, "--store", db, "records", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "1 Main St")
	assert.Contains(t, out, "Jane")

	_, err = execute(t, dir, "--store", records, "records", "add", "x")
	assert.Error(t, err, "record files are read-only")
}

func TestStats_AfterMatch(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "signup.html", signupPage)
	records := writeFile(t, dir, "records.yaml", recordFile)

	out, err := execute(t, dir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "no matching runs")

	_, err = execute(t, dir, "match", page, "--records", records)
	require.NoError(t, err)

	out, err = execute(t, dir, "stats", "--json")
	require.NoError(t, err)
	var stats usage.AggregatedStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, int64(1), stats.Total.Runs)
	assert.Equal(t, int64(2), stats.ByStrategy["rule-based"].Fields)
}

func TestBrowserSnapshot_SeveralURLsNeedOutputDir(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "browser", "snapshot", "https://example.com/a", "https://example.com/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-o must name an output directory")

	assert.Equal(t, filepath.Join("snaps", "page-1.json"), snapshotPath("snaps", 0))
	assert.Equal(t, filepath.Join("snaps", "page-2.json"), snapshotPath("snaps", 1))
}
