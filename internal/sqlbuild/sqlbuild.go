// Package sqlbuild is a small fluent assembler for emitting correctly
// quoted, formatted SQL fragments. Used everywhere the planner, entity
// handlers, and table differ emit statements.
//
// Grounded on database/postgres/generator.go's ad hoc string assembly,
// generalized into the builder spec §4.2 describes (the teacher itself
// never quotes identifiers; this closes that gap in the teacher's own
// "plain string builder" idiom rather than reaching for a templating
// library).
package sqlbuild

import "strings"

// Builder accumulates SQL text. It guarantees single-space separation
// between phrases, never auto-inserts separators the caller didn't ask for.
type Builder struct {
	b     strings.Builder
	depth int
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Phrase appends raw SQL text verbatim, separated from prior content by a
// single space (unless the builder is empty or the prior character is
// already whitespace/open-paren).
func (w *Builder) Phrase(s string) *Builder {
	w.sep()
	w.b.WriteString(s)
	return w
}

func (w *Builder) sep() {
	if w.b.Len() == 0 {
		return
	}
	cur := w.b.String()
	last := cur[len(cur)-1]
	if last == ' ' || last == '\n' || last == '(' {
		return
	}
	w.b.WriteByte(' ')
}

// Identifier appends a double-quoted identifier with internal quotes
// doubled, e.g. `users` -> `"users"`, `a"b` -> `"a""b"`.
func (w *Builder) Identifier(name string) *Builder {
	w.sep()
	w.b.WriteString(QuoteIdentifier(name))
	return w
}

// QualifiedTable appends "schema"."table", or just "table" if schema is
// empty.
func (w *Builder) QualifiedTable(schema, table string) *Builder {
	w.sep()
	w.b.WriteString(QualifyTable(schema, table))
	return w
}

// Comma appends a literal comma with no leading space, tight to prior text.
func (w *Builder) Comma() *Builder {
	w.b.WriteString(",")
	return w
}

// Newline appends a newline followed by the current indent.
func (w *Builder) Newline() *Builder {
	w.b.WriteString("\n")
	w.b.WriteString(strings.Repeat("  ", w.depth))
	return w
}

// IndentIn increases the indent depth for subsequent Newline calls.
func (w *Builder) IndentIn() *Builder {
	w.depth++
	return w
}

// IndentOut decreases the indent depth.
func (w *Builder) IndentOut() *Builder {
	if w.depth > 0 {
		w.depth--
	}
	return w
}

// RewriteLastChar replaces the final character of the buffer with c. Used
// to tighten a trailing comma before closing a paren list.
func (w *Builder) RewriteLastChar(c byte) *Builder {
	s := w.b.String()
	if len(s) == 0 {
		return w
	}
	w.b.Reset()
	w.b.WriteString(s[:len(s)-1])
	w.b.WriteByte(c)
	return w
}

// Build returns the final assembled SQL text with a tightened trailing
// semicolon (no space before ";").
func (w *Builder) Build() string {
	s := strings.TrimRight(w.b.String(), " \n")
	s = strings.TrimSuffix(s, " ;")
	if !strings.HasSuffix(s, ";") {
		s += ";"
	}
	return s
}

// BuildNoSemicolon returns the assembled text without appending or
// requiring a trailing semicolon, for fragments embedded in larger
// statements.
func (w *Builder) BuildNoSemicolon() string {
	return strings.TrimRight(w.b.String(), " \n")
}

// QuoteIdentifier double-quotes name, doubling any internal double quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral single-quotes a SQL string literal, doubling internal single
// quotes.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteDollar wraps body in a dollar-quoted string literal, picking a tag
// that doesn't collide with any "$...$" sequence already present in body.
func QuoteDollar(body string) string {
	tag := "$lockplane$"
	for strings.Contains(body, tag) {
		tag = "$lockplane_" + tag[1:]
	}
	return tag + body + tag
}

// QualifyTable renders "schema"."table", or bare "table" when schema is
// empty or "public" is intentionally omitted by the caller.
func QualifyTable(schema, table string) string {
	if schema == "" {
		return QuoteIdentifier(table)
	}
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(table)
}
