package index

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

type addPayload struct {
	XMLName xml.Name     `xml:"add"`
	Docs    []docPayload `xml:"doc"`
}

type docPayload struct {
	Fields []fieldPayload `xml:"field"`
}

type fieldPayload struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type deletePayload struct {
	XMLName xml.Name `xml:"delete"`
	ID      *string  `xml:"id"`
	Query   *string  `xml:"query"`
}

// SubmitMutation applies a serialized update payload. A returned error
// means the payload could not be parsed; a non-empty diagnostic means the
// engine rejected an otherwise well-formed update.
func (e *Engine) SubmitMutation(payload string) (string, error) {
	if e.isClosed() {
		return "", errors.New("engine is closed")
	}

	dec := xml.NewDecoder(strings.NewReader(payload))
	start, err := firstStartElement(dec)
	if err != nil {
		return "", fmt.Errorf("parse update payload: %w", err)
	}

	switch start.Name.Local {
	case "add":
		var add addPayload
		if err := dec.DecodeElement(&add, &start); err != nil {
			return "", fmt.Errorf("parse add payload: %w", err)
		}
		return e.applyAdd(add)
	case "delete":
		var del deletePayload
		if err := dec.DecodeElement(&del, &start); err != nil {
			return "", fmt.Errorf("parse delete payload: %w", err)
		}
		return e.applyDelete(del)
	case "commit":
		if err := dec.Skip(); err != nil && err != io.EOF {
			return "", fmt.Errorf("parse commit payload: %w", err)
		}
		return e.applyCommit(false)
	case "optimize":
		if err := dec.Skip(); err != nil && err != io.EOF {
			return "", fmt.Errorf("parse optimize payload: %w", err)
		}
		return e.applyCommit(true)
	default:
		return fmt.Sprintf("unknown update type %q", start.Name.Local), nil
	}
}

func firstStartElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// applyAdd stages documents, pending until the next commit. Documents
// without the unique-key field get a generated key.
func (e *Engine) applyAdd(add addPayload) (string, error) {
	if len(add.Docs) == 0 {
		return "add contained no documents", nil
	}
	for _, doc := range add.Docs {
		if len(doc.Fields) == 0 {
			return "document has no fields", nil
		}
		for _, f := range doc.Fields {
			if f.Name == "" {
				return "document field with empty name", nil
			}
		}
	}

	tx, err := e.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin add: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range add.Docs {
		key := ""
		for _, f := range doc.Fields {
			if f.Name == e.uniqueKey {
				key = f.Value
				break
			}
		}
		if key == "" {
			key = uuid.NewString()
		}

		res, err := tx.Exec(`INSERT INTO documents (doc_key, committed) VALUES (?, 0)`, key)
		if err != nil {
			return "", fmt.Errorf("stage document: %w", err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("stage document: %w", err)
		}
		for pos, f := range doc.Fields {
			if _, err := tx.Exec(
				`INSERT INTO fields (doc_seq, pos, name, value) VALUES (?, ?, ?, ?)`,
				seq, pos, f.Name, f.Value,
			); err != nil {
				return "", fmt.Errorf("stage field %q: %w", f.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("stage add: %w", err)
	}
	return "", nil
}

// applyDelete stages a deletion, pending until the next commit.
func (e *Engine) applyDelete(del deletePayload) (string, error) {
	var kind, arg string
	switch {
	case del.ID != nil && del.Query != nil:
		return "delete must carry either an id or a query, not both", nil
	case del.ID != nil:
		if *del.ID == "" {
			return "delete id is empty", nil
		}
		kind, arg = "id", *del.ID
	case del.Query != nil:
		if _, _, err := matchClause(*del.Query); err != nil {
			return fmt.Sprintf("delete query: %v", err), nil
		}
		kind, arg = "query", *del.Query
	default:
		return "delete carries neither an id nor a query", nil
	}

	if _, err := e.db.Exec(`INSERT INTO pending_deletes (kind, arg) VALUES (?, ?)`, kind, arg); err != nil {
		return "", fmt.Errorf("stage delete: %w", err)
	}
	return "", nil
}

// applyCommit makes pending mutations visible. Deletions are applied first
// in submission order against all stored documents, then pending adds
// become visible, then duplicate unique keys are resolved by keeping the
// latest document. Optimize additionally compacts the database.
func (e *Engine) applyCommit(optimize bool) (string, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT kind, arg FROM pending_deletes ORDER BY seq`)
	if err != nil {
		return "", fmt.Errorf("read pending deletes: %w", err)
	}
	type pending struct{ kind, arg string }
	var deletes []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.kind, &p.arg); err != nil {
			rows.Close()
			return "", fmt.Errorf("read pending deletes: %w", err)
		}
		deletes = append(deletes, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return "", fmt.Errorf("read pending deletes: %w", err)
	}
	rows.Close()

	for _, p := range deletes {
		if p.kind == "id" {
			if _, err := tx.Exec(`DELETE FROM documents WHERE doc_key = ?`, p.arg); err != nil {
				return "", fmt.Errorf("apply delete by id: %w", err)
			}
			continue
		}
		where, args, err := matchClause(p.arg)
		if err != nil {
			// Validated when staged; a failure here means the store is
			// corrupt rather than the payload malformed.
			return "", fmt.Errorf("apply delete by query %q: %w", p.arg, err)
		}
		if _, err := tx.Exec(`DELETE FROM documents WHERE `+where, args...); err != nil {
			return "", fmt.Errorf("apply delete by query: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM pending_deletes`); err != nil {
		return "", fmt.Errorf("clear pending deletes: %w", err)
	}
	if _, err := tx.Exec(`UPDATE documents SET committed = 1`); err != nil {
		return "", fmt.Errorf("commit documents: %w", err)
	}
	if _, err := tx.Exec(`
		DELETE FROM documents WHERE seq NOT IN (
			SELECT MAX(seq) FROM documents GROUP BY doc_key
		)
	`); err != nil {
		return "", fmt.Errorf("resolve duplicate keys: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	if optimize {
		if _, err := e.db.Exec(`VACUUM`); err != nil {
			return "", fmt.Errorf("optimize: %w", err)
		}
	}
	return "", nil
}
