package harness

import (
	"fmt"
	"strings"
)

// AssertionError reports an expectation the engine did not meet: an update
// rejected with a diagnostic, or a structural test that did not hold against
// a query response. It is an ordinary test failure, distinct from
// FatalError.
type AssertionError struct {
	// Prefix is an optional caller-supplied message prefix.
	Prefix string

	// Diagnostic is the engine's rejection message (update assertions).
	Diagnostic string

	// FailedTest is the first structural test expression that did not hold
	// (query assertions).
	FailedTest string

	// Response is the full raw response body, kept for post-mortem
	// inspection (query assertions).
	Response string
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	if e.Prefix != "" {
		b.WriteString(e.Prefix)
		b.WriteString(" ")
	}
	if e.Diagnostic != "" {
		fmt.Fprintf(&b, "update was not successful: %s", e.Diagnostic)
		return b.String()
	}
	fmt.Fprintf(&b, "query failed structural test: %s", e.FailedTest)
	if e.Response != "" {
		fmt.Fprintf(&b, "\nresponse was: %s", e.Response)
	}
	return b.String()
}

// FatalError reports a broken test rather than a misbehaving engine:
// malformed update XML, a malformed structural test expression, or a query
// that could not execute at all. Test adapters escalate it instead of
// recording an ordinary assertion failure.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
