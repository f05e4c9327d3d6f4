package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okapisearch/okapi/internal/harness"
	"github.com/okapisearch/okapi/internal/index"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern on the base name)
	Keep   bool   // retain working directories
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test command result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against a fresh engine per scenario",
		Long: `Run declarative scenario files against the engine.

Each scenario gets its own working directory and engine instance. Seed
documents are indexed and committed, mutation steps applied, and every
query check validated against its expected structural tests.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, broken scenario files, etc.)

Examples:
  okapi test ./scenarios
  okapi test ./scenarios --filter "delete_*"
  okapi test ./scenarios --keep --verbose
  okapi test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Keep, "keep", harness.KeepWorkDirFromEnv(), "retain working directories after each run")

	return cmd
}

func runScenarios(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if len(files) == 0 {
		if opts.Format == "json" {
			return out.JSON(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	runCfg := harness.RunConfig{
		Open:        index.Bind,
		KeepWorkDir: opts.Keep,
	}

	for _, file := range files {
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s", file), err)
		}
		run, err := harness.Run(scenario, runCfg)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s", scenario.Name), err)
		}

		sr := ScenarioResult{Name: scenario.Name, Pass: run.Pass, Errors: run.Errors}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}

		if opts.Format == "text" {
			out.PassFail(scenario.Name, sr.Pass)
			for _, msg := range sr.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", msg)
			}
		}
	}

	if opts.Format == "json" {
		if err := out.JSON(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

// findScenarioFiles finds all YAML scenario files in a directory, sorted by
// path for a stable run order.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			base := filepath.Base(path)
			name := base[:len(base)-len(ext)]
			ok, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}
