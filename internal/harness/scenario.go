package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a declarative harness run: seed documents to index,
// mutation steps to apply, and query checks to validate.
//
// The runner commits once after the seed section. Steps that need their own
// commit (for example, deletions that must become visible before a query)
// declare it explicitly with a commit step.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the working
	// directory and the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config and Schema are opaque engine configuration identifiers handed
	// through to the engine binding.
	Config string `yaml:"config,omitempty"`
	Schema string `yaml:"schema,omitempty"`

	// Seed lists documents indexed before the steps run. Each document is a
	// flat list of alternating field names and values; order is preserved.
	Seed []SeedDoc `yaml:"seed,omitempty"`

	// Steps are mutations applied after seeding, in order.
	Steps []Step `yaml:"steps,omitempty"`

	// Queries are run after all steps and validated against their expected
	// structural tests.
	Queries []QueryCheck `yaml:"queries"`
}

// SeedDoc is one document to index during setup.
type SeedDoc struct {
	Fields []string `yaml:"fields"`
}

// Step is a single mutation. Exactly one directive must be set.
type Step struct {
	// DeleteID deletes the document with this unique key.
	DeleteID string `yaml:"delete_id,omitempty"`

	// DeleteQuery deletes all documents matching this query.
	DeleteQuery string `yaml:"delete_query,omitempty"`

	// Commit makes pending mutations visible.
	Commit bool `yaml:"commit,omitempty"`

	// Optimize commits and compacts the index.
	Optimize bool `yaml:"optimize,omitempty"`
}

// QueryCheck is a query with its expected structural tests. An empty expect
// list always passes; the response is still recorded for golden comparison.
type QueryCheck struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params"`
	Expect []string `yaml:"expect,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so that typos fail loudly instead of silently dropping checks.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, seed := range s.Seed {
		if len(seed.Fields) == 0 {
			return fmt.Errorf("seed[%d]: fields is required", i)
		}
		if len(seed.Fields)%2 != 0 {
			return fmt.Errorf("seed[%d]: fields must be alternating name/value pairs, got %d strings", i, len(seed.Fields))
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if len(q.Params) == 0 {
			return fmt.Errorf("queries[%d]: params is required", i)
		}
		if len(q.Params) > 1 && len(q.Params)%2 != 0 {
			return fmt.Errorf("queries[%d]: params must be a query string or alternating name/value pairs", i)
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	directives := 0
	if s.DeleteID != "" {
		directives++
	}
	if s.DeleteQuery != "" {
		directives++
	}
	if s.Commit {
		directives++
	}
	if s.Optimize {
		directives++
	}
	if directives != 1 {
		return fmt.Errorf("steps[%d]: exactly one of delete_id, delete_query, commit, optimize is required", index)
	}
	return nil
}
