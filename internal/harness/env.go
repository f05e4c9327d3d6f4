package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// KeepWorkDirEnvVar is the environment variable consulted by
// KeepWorkDirFromEnv. Setting it to any non-blank value retains working
// directories after teardown, for debugging.
const KeepWorkDirEnvVar = "OKAPI_KEEP_WORKDIR"

// OpenFunc binds an engine instance to a working directory. ConfigRef and
// schemaRef are opaque identifiers handed through to the engine.
type OpenFunc func(dir, configRef, schemaRef string) (Engine, error)

// Config describes how to provision a test environment. Retention is an
// explicit configuration value rather than ambient process state; callers
// who want the environment-variable opt-out use KeepWorkDirFromEnv.
type Config struct {
	// ConfigRef and SchemaRef are opaque engine configuration identifiers.
	ConfigRef string
	SchemaRef string

	// BaseDir is the parent of per-test working directories. Defaults to
	// os.TempDir().
	BaseDir string

	// KeepWorkDir retains the working directory after teardown.
	KeepWorkDir bool

	// Logger receives teardown warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// Now supplies timestamps for working-directory names. Defaults to
	// time.Now. Injectable for deterministic tests.
	Now func() time.Time

	// Open binds the engine to the working directory. Required.
	Open OpenFunc
}

// Env is a provisioned test environment: one working directory, one live
// engine instance, one default request factory. An Env is owned by exactly
// one test and must not be shared.
type Env struct {
	// WorkDir is the per-test isolated workspace backing the engine.
	WorkDir string

	// Engine is the bound engine handle, passed explicitly into assertion
	// calls.
	Engine Engine

	// Requests builds query requests with the engine's registered defaults.
	Requests *RequestFactory

	keep bool
	log  *slog.Logger
	done bool
}

// Setup provisions an environment. The working directory is named
// <class>-<test>-<unix millis> under BaseDir, which keeps concurrent tests
// apart as long as test names are unique within a class. Directory creation
// and engine binding failures are returned loudly; nothing is provisioned
// half-way (a directory created before a failed bind is removed best-effort).
func Setup(class, test string, cfg Config) (*Env, error) {
	if cfg.Open == nil {
		return nil, errors.New("harness: Config.Open is required")
	}
	base := cfg.BaseDir
	if base == "" {
		base = os.TempDir()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Join(base, fmt.Sprintf("%s-%s-%d", class, test, now().UnixMilli()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create working directory %s: %w", dir, err)
	}

	eng, err := cfg.Open(dir, cfg.ConfigRef, cfg.SchemaRef)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn("could not remove working directory after failed bind", "dir", dir, "error", rmErr)
		}
		return nil, fmt.Errorf("bind engine to %s: %w", dir, err)
	}

	return &Env{
		WorkDir:  dir,
		Engine:   eng,
		Requests: DefaultRequestFactory(),
		keep:     cfg.KeepWorkDir,
		log:      logger,
	}, nil
}

// Teardown closes the engine, then removes the working directory tree
// unless retention was configured. Removal is best-effort: a failure is
// logged as a warning and never escalated, so cleanup problems cannot mask
// the actual test result. Teardown is idempotent; the engine is closed
// exactly once.
func (e *Env) Teardown() {
	if e.done {
		return
	}
	e.done = true

	if err := e.Engine.Close(); err != nil {
		e.log.Warn("closing engine", "dir", e.WorkDir, "error", err)
	}

	if e.keep {
		e.log.Info("working directory retained", "dir", e.WorkDir)
		return
	}
	if err := os.RemoveAll(e.WorkDir); err != nil {
		e.log.Warn("best-effort removal of working directory failed", "dir", e.WorkDir, "error", err)
	}
}

// ForTesting provisions an environment for a Go test, deriving the
// directory name from t.Name() and registering Teardown as a cleanup.
func ForTesting(t testing.TB, cfg Config) *Env {
	t.Helper()
	env, err := Setup("gotest", sanitizeName(t.Name()), cfg)
	if err != nil {
		t.Fatalf("harness setup: %v", err)
	}
	t.Cleanup(env.Teardown)
	return env
}

// KeepWorkDirFromEnv reports whether the retention opt-out environment
// variable is set and non-blank.
func KeepWorkDirFromEnv() bool {
	return strings.TrimSpace(os.Getenv(KeepWorkDirEnvVar)) != ""
}

// sanitizeName makes a subtest name safe for use in a directory name.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
