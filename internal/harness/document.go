package harness

import (
	"fmt"
	"strings"
)

// Document is an immutable rendered document fragment. It has no identity
// beyond its rendered form: it is built once from an ordered field list,
// wrapped into an update payload, and discarded.
type Document struct {
	xml string
}

// XML returns the rendered fragment, e.g.
// <doc><field name="id">1</field></doc>.
func (d Document) XML() string {
	return d.xml
}

// Doc builds a document from alternating field names and values. Order is
// semantically meaningful: duplicate field names are allowed and round-trip
// in the order supplied. An odd-length list is rejected.
func Doc(fieldsAndValues ...string) (Document, error) {
	if len(fieldsAndValues)%2 != 0 {
		return Document{}, fmt.Errorf("document fields: got %d strings, want alternating name/value pairs", len(fieldsAndValues))
	}
	var b strings.Builder
	b.WriteString("<doc>")
	for i := 0; i+1 < len(fieldsAndValues); i += 2 {
		b.WriteString(`<field name="`)
		b.WriteString(xmlEscape(fieldsAndValues[i]))
		b.WriteString(`">`)
		b.WriteString(xmlEscape(fieldsAndValues[i+1]))
		b.WriteString(`</field>`)
	}
	b.WriteString("</doc>")
	return Document{xml: b.String()}, nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// xmlEscape escapes a scalar for use as element text or attribute value.
// Already-serialized markup (such as Document.XML) must never pass through
// here; escaping it a second time would corrupt it.
func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
