package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapisearch/okapi/internal/testutil"
)

func stubOpen(eng *stubEngine) OpenFunc {
	return func(dir, configRef, schemaRef string) (Engine, error) {
		return eng, nil
	}
}

func TestSetup_CreatesWorkingDirectory(t *testing.T) {
	eng := &stubEngine{}
	env, err := Setup("EnvTest", "testCreates", Config{
		BaseDir: t.TempDir(),
		Open:    stubOpen(eng),
	})
	require.NoError(t, err)
	defer env.Teardown()

	info, err := os.Stat(env.WorkDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Contains(t, filepath.Base(env.WorkDir), "EnvTest-testCreates-")

	require.NotNil(t, env.Requests)
	assert.Equal(t, "standard", env.Requests.Handler)
	assert.Equal(t, 0, env.Requests.Start)
	assert.Equal(t, 20, env.Requests.Rows)
	assert.Equal(t, "2.2", env.Requests.Version)
}

func TestSetup_OpenIsRequired(t *testing.T) {
	_, err := Setup("EnvTest", "testNoOpen", Config{BaseDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Open is required")
}

func TestSetup_DirectoryCreationFailureIsLoud(t *testing.T) {
	// A regular file as BaseDir makes MkdirAll fail.
	base := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0o644))

	_, err := Setup("EnvTest", "testMkdirFails", Config{
		BaseDir: base,
		Open:    stubOpen(&stubEngine{}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create working directory")
}

func TestSetup_BindFailureRemovesDirectory(t *testing.T) {
	base := t.TempDir()
	var dir string
	_, err := Setup("EnvTest", "testBindFails", Config{
		BaseDir: base,
		Open: func(d, configRef, schemaRef string) (Engine, error) {
			dir = d
			return nil, fmt.Errorf("no such schema %q", schemaRef)
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind engine")

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSetup_SequentialRunsGetDistinctDirectories(t *testing.T) {
	base := t.TempDir()
	clock := testutil.NewStepClock(time.UnixMilli(1700000000000), time.Millisecond)
	cfg := Config{BaseDir: base, Open: stubOpen(&stubEngine{}), Now: clock.Now}

	first, err := Setup("EnvTest", "testUnique", cfg)
	require.NoError(t, err)
	defer first.Teardown()

	second, err := Setup("EnvTest", "testUnique", cfg)
	require.NoError(t, err)
	defer second.Teardown()

	assert.NotEqual(t, first.WorkDir, second.WorkDir)
}

func TestTeardown_RemovesNestedTree(t *testing.T) {
	env, err := Setup("EnvTest", "testRemove", Config{
		BaseDir: t.TempDir(),
		Open:    stubOpen(&stubEngine{}),
	})
	require.NoError(t, err)

	nested := filepath.Join(env.WorkDir, "segments", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "segment.dat"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(env.WorkDir, "index.lock"), []byte("lock"), 0o644))

	env.Teardown()

	_, statErr := os.Stat(env.WorkDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTeardown_RetainsDirectoryWhenConfigured(t *testing.T) {
	env, err := Setup("EnvTest", "testRetain", Config{
		BaseDir:     t.TempDir(),
		KeepWorkDir: true,
		Open:        stubOpen(&stubEngine{}),
	})
	require.NoError(t, err)

	env.Teardown()

	info, statErr := os.Stat(env.WorkDir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestTeardown_ClosesEngineExactlyOnce(t *testing.T) {
	eng := &stubEngine{}
	env, err := Setup("EnvTest", "testCloseOnce", Config{
		BaseDir: t.TempDir(),
		Open:    stubOpen(eng),
	})
	require.NoError(t, err)

	env.Teardown()
	env.Teardown()
	assert.Equal(t, 1, eng.closes)
}

func TestForTesting_ProvisionsAndCleansUp(t *testing.T) {
	var workDir string

	t.Run("inner", func(t *testing.T) {
		env := ForTesting(t, Config{
			BaseDir: t.TempDir(),
			Open:    stubOpen(&stubEngine{}),
		})
		workDir = env.WorkDir
		assert.Contains(t, filepath.Base(workDir), "gotest-")

		_, err := os.Stat(workDir)
		assert.NoError(t, err)
	})

	_, err := os.Stat(workDir)
	assert.True(t, os.IsNotExist(err))
}

func TestKeepWorkDirFromEnv(t *testing.T) {
	t.Setenv(KeepWorkDirEnvVar, "")
	assert.False(t, KeepWorkDirFromEnv())

	t.Setenv(KeepWorkDirEnvVar, "   ")
	assert.False(t, KeepWorkDirFromEnv())

	t.Setenv(KeepWorkDirEnvVar, "1")
	assert.True(t, KeepWorkDirFromEnv())
}
