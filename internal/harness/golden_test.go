package harness_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okapisearch/okapi/internal/harness"
	"github.com/okapisearch/okapi/internal/index"
)

func TestRunWithGolden_BasicSearch(t *testing.T) {
	scenario, err := harness.LoadScenario(filepath.Join("testdata", "scenarios", "basic_search.yaml"))
	require.NoError(t, err)

	err = harness.RunWithGolden(t, scenario, harness.RunConfig{
		Open:    index.Bind,
		BaseDir: t.TempDir(),
	})
	require.NoError(t, err)
}
