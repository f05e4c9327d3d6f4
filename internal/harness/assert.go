package harness

import (
	"errors"
	"testing"
)

// CheckUpdate submits an update payload and classifies the outcome. An
// empty engine diagnostic means success (nil). A non-empty diagnostic is
// returned as an *AssertionError carrying the optional message prefix. A
// payload the engine could not parse is returned as a *FatalError.
func CheckUpdate(eng Engine, prefix, payload string) error {
	diag, err := eng.SubmitMutation(payload)
	if err != nil {
		return &FatalError{Op: "submit update", Err: err}
	}
	if diag != "" {
		return &AssertionError{Prefix: prefix, Diagnostic: diag}
	}
	return nil
}

// CheckQuery executes a query request and validates the response against
// structural test expressions. Evaluation short-circuits on the first
// expression that does not hold; the failure carries that expression and
// the full response body. The request is released on every exit path.
//
// An empty test list always passes. Malformed expressions and execution
// failures are returned as *FatalError.
func CheckQuery(eng Engine, prefix string, req *Request, tests ...string) error {
	_, err := runQuery(eng, prefix, req, tests)
	return err
}

// runQuery is the shared submit/observe/classify path for query
// assertions. It returns the response body even when validation fails, so
// callers like the scenario runner can record it.
func runQuery(eng Engine, prefix string, req *Request, tests []string) (string, error) {
	defer req.Close()
	body, err := eng.SubmitQuery(req)
	if err != nil {
		return "", &FatalError{Op: "execute query", Err: err}
	}
	failed, err := eng.ValidateResponse(body, tests)
	if err != nil {
		return body, &FatalError{Op: "evaluate structural tests", Err: err}
	}
	if failed != "" {
		return body, &AssertionError{Prefix: prefix, FailedTest: failed, Response: body}
	}
	return body, nil
}

// AssertU validates that an update payload is accepted by the engine.
func AssertU(t testing.TB, eng Engine, payload string) {
	t.Helper()
	failOn(t, CheckUpdate(eng, "", payload))
}

// AssertUMsg is AssertU with a message prefix on failure.
func AssertUMsg(t testing.TB, eng Engine, msg, payload string) {
	t.Helper()
	failOn(t, CheckUpdate(eng, msg, payload))
}

// AssertQ validates that a query response satisfies all structural tests.
func AssertQ(t testing.TB, eng Engine, req *Request, tests ...string) {
	t.Helper()
	failOn(t, CheckQuery(eng, "", req, tests...))
}

// AssertQMsg is AssertQ with a message prefix on failure.
func AssertQMsg(t testing.TB, eng Engine, msg string, req *Request, tests ...string) {
	t.Helper()
	failOn(t, CheckQuery(eng, msg, req, tests...))
}

func failOn(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		return
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		t.Fatalf("test authoring error: %v", fatal)
		return
	}
	t.Fatalf("%v", err)
}
