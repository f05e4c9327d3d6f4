package harness

// Engine is the adapter to a live search engine instance bound to one
// working directory. The harness core treats the engine as a black box: it
// assembles payloads, submits them, and classifies the outcome. Engine
// implementations own the wire format of update payloads and responses.
type Engine interface {
	// SubmitMutation submits a serialized update payload. A non-empty
	// diagnostic means the engine rejected the update; a non-nil error means
	// the payload itself could not be parsed, which indicates a
	// test-authoring bug rather than an engine bug.
	SubmitMutation(payload string) (diagnostic string, err error)

	// SubmitQuery executes a query request and returns the serialized
	// response body. Implementations attach any request-scoped resource to
	// the request via OnClose; callers must Close the request after use on
	// every path.
	SubmitQuery(req *Request) (string, error)

	// SerializeDeleteByID and SerializeDeleteByQuery render deletion
	// payloads in the engine's canonical wire format.
	SerializeDeleteByID(id string) string
	SerializeDeleteByQuery(q string) string

	// ValidateResponse evaluates structural test expressions against a
	// response body. It returns the first expression that does not hold, or
	// "" if all hold. A non-nil error means an expression was malformed.
	ValidateResponse(body string, tests []string) (string, error)

	// Close releases all engine resources. Safe to call more than once.
	Close() error
}

// Request is a structured query request. Params are alternating name/value
// pairs; order is preserved so the engine can echo them back verbatim.
//
// A Request is single-use: it is executed once and then closed. Close
// releases any engine-side resource the execution acquired.
type Request struct {
	Handler string
	Params  []string

	closers []func()
	closed  bool
}

// Param returns the value of the first occurrence of name.
func (r *Request) Param(name string) (string, bool) {
	for i := 0; i+1 < len(r.Params); i += 2 {
		if r.Params[i] == name {
			return r.Params[i+1], true
		}
	}
	return "", false
}

// OnClose registers a release hook. Engines use this to tie request-scoped
// resources to the request's lifetime.
func (r *Request) OnClose(f func()) {
	r.closers = append(r.closers, f)
}

// Close runs the registered release hooks. Idempotent.
func (r *Request) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, f := range r.closers {
		f()
	}
}

// Closed reports whether the request has been released.
func (r *Request) Closed() bool {
	return r.closed
}
