// Package exprcmp decides semantic equality between two SQL scalar
// expressions where one side may have been rewritten by the PostgreSQL
// server (added parentheses, type casts, `= ANY(ARRAY[...])` for
// `IN (...)`, `~~` for LIKE, `now()` vs CURRENT_TIMESTAMP, the
// `pg_catalog.` schema prefix, BETWEEN expansion, EXTRACT field casing).
//
// Used to compare defaults, CHECK predicates, partial-index WHERE clauses,
// and generated-column expressions between the Desired and Current models.
//
// Grounded on internal/parser's pg_query_go usage pattern (the teacher's
// only user of the library), applied here to a new problem: reparsing a
// scalar expression as the WHERE clause of a throwaway SELECT, then
// deparsing it back through pg_query's own deparser to get a
// whitespace/parenthesization-normalized form, before applying the
// targeted rewrites spec §4.1 enumerates.
package exprcmp

import (
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Equal decides semantic equality of a and b. It is reflexive, symmetric,
// and consistent with PostgreSQL's rewrites for the forms spec §4.1 lists.
// It never panics; on parse failure it falls back to whitespace-normalized
// textual equality (a conservative false-negative is acceptable, a
// false-positive is not).
func Equal(a, b string) bool {
	if strings.TrimSpace(a) == strings.TrimSpace(b) {
		return true
	}

	ca, errA := canonicalize(a)
	cb, errB := canonicalize(b)
	if errA != nil || errB != nil {
		return normalizeWhitespace(a) == normalizeWhitespace(b)
	}
	return ca == cb
}

// EqualOptional is Equal for fields that are often empty (partial-index
// WHERE, index expression): empty on both sides means "absent", not "two
// equal empty expressions", but the comparison comes out the same either
// way, so this is a documentation-only alias at call sites that compare an
// optional field.
func EqualOptional(a, b string) bool {
	return Equal(a, b)
}

// canonicalize parses expr as the WHERE clause of a dummy SELECT, deparses
// it back through pg_query (which normalizes whitespace and redundant
// parens by construction), and then applies the textual canonicalization
// rewrites below.
func canonicalize(expr string) (string, error) {
	wrapped := "SELECT 1 WHERE " + expr
	tree, err := pg_query.Parse(wrapped)
	if err != nil {
		return "", err
	}

	deparsed, err := pg_query.Deparse(tree)
	if err != nil {
		return "", err
	}

	idx := strings.Index(strings.ToUpper(deparsed), "WHERE ")
	if idx < 0 {
		return "", err
	}
	whereClause := deparsed[idx+len("WHERE "):]

	return rewrite(whereClause), nil
}

var (
	betweenRe   = regexp.MustCompile(`(?i)([\w."]+)\s+BETWEEN\s+(\S+)\s+AND\s+(\S+)`)
	anyArrayRe  = regexp.MustCompile(`(?i)([\w."]+)\s*=\s*ANY\s*\(\s*ARRAY\s*\[\s*([^\]]*)\]\s*(::\s*[\w."]+(\[\])?)?\s*\)`)
	likeRe      = regexp.MustCompile(`(?i)([\w."']+)\s+LIKE\s+`)
	ilikeRe     = regexp.MustCompile(`(?i)([\w."']+)\s+ILIKE\s+`)
	nowRe       = regexp.MustCompile(`(?i)\bnow\s*\(\s*\)`)
	pgCatalogRe = regexp.MustCompile(`(?i)\bpg_catalog\.`)
	extractRe   = regexp.MustCompile(`(?i)EXTRACT\s*\(\s*'?([A-Za-z]+)'?\s+FROM`)
	parensRe    = regexp.MustCompile(`^\((.*)\)$`)
)

// rewrite applies the canonicalization rewrites spec §4.1 enumerates, in an
// order chosen so later rewrites see the output of earlier ones.
func rewrite(s string) string {
	s = strings.TrimSpace(s)

	s = betweenRe.ReplaceAllString(s, "$1 >= $2 AND $1 <= $3")
	s = anyArrayRe.ReplaceAllString(s, "$1 IN ($2)")
	s = likeRe.ReplaceAllString(s, "$1 ~~ ")
	s = ilikeRe.ReplaceAllString(s, "$1 ~~* ")
	s = pgCatalogRe.ReplaceAllString(s, "")
	s = nowRe.ReplaceAllString(s, "CURRENT_TIMESTAMP")
	s = extractRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := extractRe.FindStringSubmatch(m)
		return "EXTRACT(" + strings.ToUpper(sub[1]) + " FROM"
	})

	for {
		if m := parensRe.FindStringSubmatch(s); m != nil && balanced(m[1]) {
			s = m[1]
			continue
		}
		break
	}

	return normalizeWhitespace(s)
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
