package index

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okapisearch/okapi/internal/harness"
)

//go:embed schema.sql
var schemaSQL string

// DatabaseFile is the index database name inside a working directory.
const DatabaseFile = "index.db"

// Engine is a search engine instance bound to one working directory. It
// implements harness.Engine. One test owns one Engine; methods are
// internally locked only to keep leak accounting and close idempotency
// safe.
type Engine struct {
	dir       string
	configRef string
	schemaRef string
	uniqueKey string
	log       *slog.Logger

	db *sql.DB

	mu           sync.Mutex
	closed       bool
	openRequests int
}

var _ harness.Engine = (*Engine)(nil)

// Options tunes an Engine beyond its working directory.
type Options struct {
	// UniqueKey is the field treated as the document's unique key.
	// Defaults to "id".
	UniqueKey string

	// Logger receives engine warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Open binds an engine to a working directory, creating the index database
// there. The config and schema identifiers are recorded, not parsed.
func Open(dir, configRef, schemaRef string, opts Options) (*Engine, error) {
	uniqueKey := opts.UniqueKey
	if uniqueKey == "" {
		uniqueKey = "id"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, DatabaseFile))
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to index database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY inside a test run.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply index schema: %w", err)
	}

	return &Engine{
		dir:       dir,
		configRef: configRef,
		schemaRef: schemaRef,
		uniqueKey: uniqueKey,
		log:       logger,
		db:        db,
	}, nil
}

// Bind opens an engine with default options. It matches harness.OpenFunc.
func Bind(dir, configRef, schemaRef string) (harness.Engine, error) {
	return Open(dir, configRef, schemaRef, Options{})
}

// WorkDir returns the working directory the engine is bound to.
func (e *Engine) WorkDir() string { return e.dir }

// ConfigRef returns the opaque config identifier recorded at bind time.
func (e *Engine) ConfigRef() string { return e.configRef }

// SchemaRef returns the opaque schema identifier recorded at bind time.
func (e *Engine) SchemaRef() string { return e.schemaRef }

// OpenRequests returns the number of executed query requests that have not
// been released yet.
func (e *Engine) OpenRequests() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openRequests
}

// Close releases the engine. Safe to call more than once; requests still
// unreleased at close time are logged as a leak warning.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	leaked := e.openRequests
	e.mu.Unlock()

	if leaked > 0 {
		e.log.Warn("closing engine with unreleased query requests", "dir", e.dir, "open", leaked)
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close index database: %w", err)
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return nil
}
