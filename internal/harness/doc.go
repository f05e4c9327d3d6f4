// Package harness provides a declarative test harness for exercising a
// document search engine.
//
// Each test owns one isolated environment: a uniquely named working
// directory with a live engine instance bound to it. The harness provides
// builders for update and query payloads, assertion helpers that classify
// failures, and a teardown that removes the workspace unless retention is
// requested.
//
// # Lifecycle
//
// An environment is provisioned with Setup (or ForTesting inside a Go test):
//
//	env, err := harness.Setup("SortTest", "testTitleSort", harness.Config{
//	    ConfigRef: "config-minimal",
//	    SchemaRef: "schema-basic",
//	    Open:      index.Bind,
//	})
//	defer env.Teardown()
//
// The test body builds payloads and asserts on engine behavior:
//
//	doc, _ := harness.Doc("id", "1", "title", "Apple pie")
//	payload, _ := harness.Add(doc)
//	harness.AssertU(t, env.Engine, payload)
//	harness.AssertU(t, env.Engine, harness.Commit())
//
//	req, _ := env.Requests.Make("id:1")
//	harness.AssertQ(t, env.Engine, req,
//	    "//result[@numFound='1']",
//	    "//doc/str[@name='title'][.='Apple pie']")
//
// # Error taxonomy
//
// The check functions return two distinguishable error kinds:
//
//   - *FatalError: the test itself is broken (malformed update XML,
//     malformed structural test expression, query execution failure).
//   - *AssertionError: the engine behaved, but not as expected (an update
//     rejected with a diagnostic, or a structural test that did not hold).
//
// Cleanup failures are a third category: they are logged as warnings and
// never fail the test, since a deletion problem must not mask the actual
// test result.
//
// # Scenario files
//
// Scenarios describe seed documents, mutation steps, and query checks in
// YAML and run through Run or RunWithGolden:
//
//	name: basic_search
//	description: "Seeded documents are found by field queries"
//	seed:
//	  - fields: [id, "1", title, "Apple pie"]
//	queries:
//	  - name: by_id
//	    params: [q, "id:1"]
//	    expect:
//	      - "//result[@numFound='1']"
package harness
