package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its query responses
// against a golden file at testdata/golden/<scenario.Name>.golden.
// Responses are deterministic for a given scenario, so the golden file pins
// the full response shape, not just the asserted fragments.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution itself fails; golden mismatches
// and assertion failures fail the test through t.
func RunWithGolden(t *testing.T, scenario *Scenario, cfg RunConfig) error {
	t.Helper()

	result, err := Run(scenario, cfg)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot(scenario.Name, result))
	return nil
}

// snapshot renders a deterministic textual form of the run for golden
// comparison.
func snapshot(name string, result *Result) []byte {
	var b strings.Builder
	b.WriteString("scenario: ")
	b.WriteString(name)
	b.WriteString("\n")
	for _, q := range result.Queries {
		b.WriteString("== query ")
		b.WriteString(q.Name)
		b.WriteString(" [")
		b.WriteString(strings.Join(q.Params, " "))
		b.WriteString("]\n")
		b.WriteString(q.Response)
		if !strings.HasSuffix(q.Response, "\n") {
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}
