package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with the given arguments and returns combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

const passingScenario = `name: passing
description: Seeded documents are found by the match-all query.
seed:
  - fields: [id, "1", title, "Apple pie"]
queries:
  - name: all
    params: ["*:*"]
    expect:
      - "//result[@numFound='1']"
`

const failingScenario = `name: failing
description: An expectation that cannot hold.
queries:
  - name: all
    params: ["*:*"]
    expect:
      - "//result[@numFound='7']"
`

func TestTestCommand_PassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing.yaml", passingScenario)

	out, err := execute(t, "", "test", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "passing")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_FailingScenarioExitsWithFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing.yaml", passingScenario)
	writeScenario(t, dir, "failing.yaml", failingScenario)

	out, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "//result[@numFound='7']")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommand_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing.yaml", passingScenario)

	out, err := execute(t, "", "test", dir, "--format", "json")
	require.NoError(t, err)

	assert.Contains(t, out, `"name": "passing"`)
	assert.Contains(t, out, `"pass": true`)
	assert.Contains(t, out, `"total": 1`)
}

func TestTestCommand_EmptyDirectory(t *testing.T) {
	out, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_EmptyDirectoryJSON(t *testing.T) {
	out, err := execute(t, "", "test", t.TempDir(), "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"scenarios": []`)
}

func TestTestCommand_MissingDirectoryIsCommandError(t *testing.T) {
	_, err := execute(t, "", "test", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_BrokenScenarioIsCommandError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nunknown_field: true\n")

	_, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_InvalidFormatIsRejected(t *testing.T) {
	_, err := execute(t, "", "test", t.TempDir(), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "delete_by_id.yaml", "")
	writeScenario(t, dir, "delete_by_query.yml", "")
	writeScenario(t, dir, "search.yaml", "")
	writeScenario(t, dir, "notes.txt", "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeScenario(t, dir, filepath.Join("nested", "paging.yaml"), "")

	t.Run("no filter", func(t *testing.T) {
		files, err := findScenarioFiles(dir, "")
		require.NoError(t, err)
		require.Len(t, files, 4)
		for _, f := range files {
			assert.NotContains(t, f, "notes.txt")
		}
	})

	t.Run("glob filter on base name", func(t *testing.T) {
		files, err := findScenarioFiles(dir, "delete_*")
		require.NoError(t, err)
		require.Len(t, files, 2)
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := findScenarioFiles(dir, "[")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid filter "["`)
	})
}
