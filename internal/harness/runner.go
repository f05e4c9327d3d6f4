package harness

import (
	"errors"
	"fmt"
	"log/slog"
)

// RunConfig configures scenario execution.
type RunConfig struct {
	// Open binds the engine for the scenario's environment. Required.
	Open OpenFunc

	// BaseDir is the parent for the scenario's working directory. Defaults
	// to the system temp directory.
	BaseDir string

	// KeepWorkDir retains the working directory after the run.
	KeepWorkDir bool

	// Logger receives lifecycle warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// QueryResult records one executed query check.
type QueryResult struct {
	Name     string   `json:"name"`
	Params   []string `json:"params"`
	Response string   `json:"response"`
}

// Result is the outcome of a scenario run. Errors holds assertion failures;
// authoring errors abort the run and are returned from Run instead.
type Result struct {
	Pass    bool          `json:"pass"`
	Errors  []string      `json:"errors,omitempty"`
	Queries []QueryResult `json:"queries"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true, Queries: []QueryResult{}}
}

// AddError records an assertion failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Run executes a scenario in a fresh environment: seed documents, one
// commit, the mutation steps, then the query checks. Assertion failures
// accumulate in the result; a broken scenario (malformed payload or
// expression) aborts with an error. The environment is torn down on every
// path.
func Run(scenario *Scenario, cfg RunConfig) (*Result, error) {
	env, err := Setup("scenario", scenario.Name, Config{
		ConfigRef:   scenario.Config,
		SchemaRef:   scenario.Schema,
		BaseDir:     cfg.BaseDir,
		KeepWorkDir: cfg.KeepWorkDir,
		Logger:      cfg.Logger,
		Open:        cfg.Open,
	})
	if err != nil {
		return nil, err
	}
	defer env.Teardown()

	result := NewResult()

	for i, seed := range scenario.Seed {
		doc, err := Doc(seed.Fields...)
		if err != nil {
			return nil, fmt.Errorf("seed[%d]: %w", i, err)
		}
		payload, err := Add(doc)
		if err != nil {
			return nil, fmt.Errorf("seed[%d]: %w", i, err)
		}
		if err := applyUpdate(env.Engine, fmt.Sprintf("seed[%d]:", i), payload, result); err != nil {
			return nil, err
		}
	}
	if err := applyUpdate(env.Engine, "seed commit:", Commit(), result); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		var payload string
		switch {
		case step.DeleteID != "":
			payload = env.Engine.SerializeDeleteByID(step.DeleteID)
		case step.DeleteQuery != "":
			payload = env.Engine.SerializeDeleteByQuery(step.DeleteQuery)
		case step.Commit:
			payload = Commit()
		case step.Optimize:
			payload = Optimize()
		}
		if err := applyUpdate(env.Engine, fmt.Sprintf("steps[%d]:", i), payload, result); err != nil {
			return nil, err
		}
	}

	for _, check := range scenario.Queries {
		req, err := env.Requests.Make(check.Params...)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", check.Name, err)
		}
		body, err := runQuery(env.Engine, check.Name+":", req, check.Expect)
		var aerr *AssertionError
		switch {
		case errors.As(err, &aerr):
			result.AddError(err.Error())
		case err != nil:
			return nil, fmt.Errorf("query %q: %w", check.Name, err)
		}
		result.Queries = append(result.Queries, QueryResult{
			Name:     check.Name,
			Params:   req.Params,
			Response: body,
		})
	}

	return result, nil
}

// applyUpdate submits a mutation, recording engine rejections as assertion
// failures and escalating authoring errors.
func applyUpdate(eng Engine, label, payload string, result *Result) error {
	err := CheckUpdate(eng, label, payload)
	var aerr *AssertionError
	if errors.As(err, &aerr) {
		result.AddError(err.Error())
		return nil
	}
	return err
}
