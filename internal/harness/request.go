package harness

import (
	"fmt"
	"strconv"
	"strings"
)

// Default request parameters matching the engine's standard query handler.
const (
	DefaultHandler   = "standard"
	DefaultStart     = 0
	DefaultRows      = 20
	VersionParamName = "version"
	DefaultVersion   = "2.2"
)

// Add wraps a rendered document into an update payload. With no params the
// envelope carries no attributes and the output is exactly
// <add><doc>...</doc></add>. Params are alternating attribute names and
// values, emitted on the envelope exactly once each, in order. The document
// fragment is already-serialized markup and passes through unescaped.
func Add(doc Document, params ...string) (string, error) {
	if len(params) == 0 {
		return "<add>" + doc.XML() + "</add>", nil
	}
	if len(params)%2 != 0 {
		return "", fmt.Errorf("add params: got %d strings, want alternating name/value pairs", len(params))
	}
	var b strings.Builder
	b.WriteString("<add")
	for i := 0; i+1 < len(params); i += 2 {
		b.WriteString(" ")
		b.WriteString(params[i])
		b.WriteString(`="`)
		b.WriteString(xmlEscape(params[i+1]))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(doc.XML())
	b.WriteString("</add>")
	return b.String(), nil
}

// Commit returns the commit payload.
func Commit() string { return "<commit/>" }

// Optimize returns the optimize payload.
func Optimize() string { return "<optimize/>" }

// RequestFactory builds query requests with a fixed handler and default
// pagination and protocol-version parameters. The environment lifecycle
// constructs one with the engine's registered defaults; tests may build
// their own for non-default handlers.
type RequestFactory struct {
	Handler      string
	Start        int
	Rows         int
	VersionParam string
	Version      string
}

// NewRequestFactory returns a factory producing requests for the given
// handler with the given pagination and protocol-version defaults.
func NewRequestFactory(handler string, start, rows int, versionParam, version string) *RequestFactory {
	return &RequestFactory{
		Handler:      handler,
		Start:        start,
		Rows:         rows,
		VersionParam: versionParam,
		Version:      version,
	}
}

// DefaultRequestFactory returns the factory the environment lifecycle binds
// by default: the standard handler, zero-based offset, 20-row pages,
// protocol version 2.2.
func DefaultRequestFactory() *RequestFactory {
	return NewRequestFactory(DefaultHandler, DefaultStart, DefaultRows, VersionParamName, DefaultVersion)
}

// Make builds a request. A single argument is shorthand for the query
// string itself; otherwise arguments are alternating parameter names and
// values. Factory defaults are appended for any parameter not supplied.
func (f *RequestFactory) Make(args ...string) (*Request, error) {
	var params []string
	switch {
	case len(args) == 1:
		params = []string{"q", args[0]}
	case len(args)%2 != 0:
		return nil, fmt.Errorf("request params: got %d strings, want alternating name/value pairs", len(args))
	default:
		params = append(params, args...)
	}
	params = appendDefault(params, "start", strconv.Itoa(f.Start))
	params = appendDefault(params, "rows", strconv.Itoa(f.Rows))
	params = appendDefault(params, f.VersionParam, f.Version)
	return &Request{Handler: f.Handler, Params: params}, nil
}

// appendDefault appends the pair only when name is not already present.
func appendDefault(params []string, name, value string) []string {
	for i := 0; i+1 < len(params); i += 2 {
		if params[i] == name {
			return params
		}
	}
	return append(params, name, value)
}
