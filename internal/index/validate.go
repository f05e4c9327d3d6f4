package index

import (
	"fmt"
	"math"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// ValidateResponse evaluates XPath test expressions against a response
// body. Evaluation short-circuits on the first expression that does not
// hold and returns it; "" means all expressions hold. A malformed
// expression is returned as an error, distinct from a structural mismatch.
func (e *Engine) ValidateResponse(body string, tests []string) (string, error) {
	if len(tests) == 0 {
		return "", nil
	}

	doc, err := xmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse response body: %w", err)
	}

	for _, test := range tests {
		expr, err := xpath.Compile(test)
		if err != nil {
			return "", fmt.Errorf("compile structural test %q: %w", test, err)
		}
		result := expr.Evaluate(xmlquery.CreateXPathNavigator(doc))
		if !truthy(result) {
			return test, nil
		}
	}
	return "", nil
}

// truthy applies XPath boolean conversion to an evaluation result: a
// node-set holds when non-empty, a number when non-zero, a string when
// non-empty.
func truthy(v any) bool {
	switch r := v.(type) {
	case bool:
		return r
	case float64:
		return r != 0 && !math.IsNaN(r)
	case string:
		return r != ""
	case *xpath.NodeIterator:
		return r.MoveNext()
	default:
		return v != nil
	}
}
