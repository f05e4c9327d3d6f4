package index

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okapisearch/okapi/internal/harness"
)

type storedDoc struct {
	seq    int64
	fields []fieldPayload
}

// SubmitQuery executes a query request against the committed index and
// returns the serialized response. The request-scoped resource (the
// engine's open-request slot) is attached to the request and released when
// the request is closed.
func (e *Engine) SubmitQuery(req *harness.Request) (string, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", errors.New("engine is closed")
	}
	e.openRequests++
	e.mu.Unlock()
	req.OnClose(func() {
		e.mu.Lock()
		e.openRequests--
		e.mu.Unlock()
	})

	if req.Handler != "standard" {
		return "", fmt.Errorf("unknown request handler %q", req.Handler)
	}
	q, ok := req.Param("q")
	if !ok {
		return "", errors.New("missing q parameter")
	}
	start, err := intParam(req, "start", 0)
	if err != nil {
		return "", err
	}
	rows, err := intParam(req, "rows", 20)
	if err != nil {
		return "", err
	}

	docs, err := e.match(q)
	if err != nil {
		return "", err
	}

	if sortSpec, ok := req.Param("sort"); ok {
		if err := sortDocs(docs, sortSpec); err != nil {
			return "", err
		}
	}

	numFound := len(docs)
	if start > numFound {
		start = numFound
	}
	end := start + rows
	if end > numFound {
		end = numFound
	}

	return renderResponse(req.Params, numFound, start, docs[start:end]), nil
}

// match returns all committed documents matching q, in insertion order.
func (e *Engine) match(q string) ([]storedDoc, error) {
	where, args, err := matchClause(q)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.Query(`SELECT seq FROM documents WHERE committed = 1 AND `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("match documents: %w", err)
	}
	defer rows.Close()

	var docs []storedDoc
	for rows.Next() {
		var doc storedDoc
		if err := rows.Scan(&doc.seq); err != nil {
			return nil, fmt.Errorf("match documents: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match documents: %w", err)
	}

	for i := range docs {
		fields, err := e.docFields(docs[i].seq)
		if err != nil {
			return nil, err
		}
		docs[i].fields = fields
	}
	return docs, nil
}

func (e *Engine) docFields(seq int64) ([]fieldPayload, error) {
	rows, err := e.db.Query(`SELECT name, value FROM fields WHERE doc_seq = ? ORDER BY pos`, seq)
	if err != nil {
		return nil, fmt.Errorf("read document fields: %w", err)
	}
	defer rows.Close()

	var fields []fieldPayload
	for rows.Next() {
		var f fieldPayload
		if err := rows.Scan(&f.Name, &f.Value); err != nil {
			return nil, fmt.Errorf("read document fields: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read document fields: %w", err)
	}
	return fields, nil
}

// matchClause translates a query string into a SQL condition over the
// documents table. Supported forms: "*:*" (all), "field:value" (exact field
// match), and a bare term (exact match in any field).
func matchClause(q string) (string, []any, error) {
	if strings.TrimSpace(q) == "" {
		return "", nil, errors.New("empty query")
	}
	if q == "*:*" {
		return "1 = 1", nil, nil
	}
	if i := strings.Index(q, ":"); i >= 0 {
		field, value := q[:i], q[i+1:]
		if field == "" {
			return "", nil, fmt.Errorf("query %q has an empty field name", q)
		}
		return `EXISTS (
			SELECT 1 FROM fields f WHERE f.doc_seq = documents.seq AND f.name = ? AND f.value = ?
		)`, []any{field, value}, nil
	}
	return `EXISTS (
		SELECT 1 FROM fields f WHERE f.doc_seq = documents.seq AND f.value = ?
	)`, []any{q}, nil
}

// sortDocs orders documents by a "field asc|desc" spec, comparing the first
// value of the named field with collated ordering. Documents missing the
// field sort before those that have it; ties keep insertion order.
func sortDocs(docs []storedDoc, spec string) error {
	parts := strings.Fields(spec)
	if len(parts) != 2 || (parts[1] != "asc" && parts[1] != "desc") {
		return fmt.Errorf("sort %q: want \"field asc\" or \"field desc\"", spec)
	}
	field, desc := parts[0], parts[1] == "desc"

	coll := collate.New(language.Und)
	key := func(d storedDoc) string {
		for _, f := range d.fields {
			if f.Name == field {
				return f.Value
			}
		}
		return ""
	}
	sort.SliceStable(docs, func(i, j int) bool {
		c := coll.CompareString(key(docs[i]), key(docs[j]))
		if desc {
			return c > 0
		}
		return c < 0
	})
	return nil
}

func intParam(req *harness.Request, name string, fallback int) (int, error) {
	raw, ok := req.Param(name)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("parameter %s=%q: want a non-negative integer", name, raw)
	}
	return n, nil
}
