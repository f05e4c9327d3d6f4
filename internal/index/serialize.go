package index

import (
	"fmt"
	"strings"
)

// The engine owns the wire format of update payloads and responses; the
// harness assembles payloads against it and the structural tests evaluate
// responses in it.

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escape(s string) string {
	return escaper.Replace(s)
}

// SerializeDeleteByID renders the canonical delete-by-id payload.
func (e *Engine) SerializeDeleteByID(id string) string {
	return "<delete><id>" + escape(id) + "</id></delete>"
}

// SerializeDeleteByQuery renders the canonical delete-by-query payload.
func (e *Engine) SerializeDeleteByQuery(q string) string {
	return "<delete><query>" + escape(q) + "</query></delete>"
}

// renderResponse serializes a query response. The output is fully
// deterministic for a given index state and parameter list, which golden
// comparisons rely on.
func renderResponse(params []string, numFound, start int, docs []storedDoc) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<response>\n")

	b.WriteString("<responseHeader><status>0</status><params>")
	for i := 0; i+1 < len(params); i += 2 {
		b.WriteString(`<param name="`)
		b.WriteString(escape(params[i]))
		b.WriteString(`">`)
		b.WriteString(escape(params[i+1]))
		b.WriteString("</param>")
	}
	b.WriteString("</params></responseHeader>\n")

	fmt.Fprintf(&b, `<result name="response" numFound="%d" start="%d">`+"\n", numFound, start)
	for _, doc := range docs {
		b.WriteString("<doc>")
		for _, f := range doc.fields {
			b.WriteString(`<str name="`)
			b.WriteString(escape(f.Name))
			b.WriteString(`">`)
			b.WriteString(escape(f.Value))
			b.WriteString("</str>")
		}
		b.WriteString("</doc>\n")
	}
	b.WriteString("</result>\n")

	b.WriteString("</response>\n")
	return b.String()
}
