// Package index implements the document search engine the harness drives.
//
// An Engine is bound to one working directory and stores its index in a
// SQLite database there. Mutations (add, delete by id, delete by query)
// stay pending until a commit makes them visible to queries; commit also
// resolves duplicate unique keys by keeping the latest document. Queries
// run through the standard handler with q/start/rows/sort parameters and
// return a deterministic XML response.
//
// Config and schema identifiers passed at bind time are recorded but not
// parsed; the engine's behavior is fixed. The only schema-like setting is
// the unique-key field name (default "id"). Documents added without a
// unique-key field are assigned a generated one.
package index
