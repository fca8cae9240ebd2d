package querybuilder

import "strings"

// reservedIdentifiers are SQL functions and keywords that must never be
// qualified with a table alias when they appear inside a recipe expression.
var reservedIdentifiers = map[string]struct{}{
	"day": {}, "month": {}, "year": {}, "getdate": {}, "datediff": {},
	"sum": {}, "avg": {}, "count": {}, "min": {}, "max": {}, "null": {},
	"getutcdate": {}, "sysdatetime": {}, "current_timestamp": {},
	"week": {}, "quarter": {}, "isnull": {}, "coalesce": {}, "abs": {},
	"round": {}, "cast": {}, "convert": {}, "as": {}, "case": {}, "when": {},
	"then": {}, "else": {}, "end": {}, "and": {}, "or": {}, "not": {}, "distinct": {},
}

// isExpression reports whether a recipe column is a SQL expression rather
// than a plain column name.
func isExpression(column string) bool {
	return strings.Contains(column, "(")
}

// qualifyExpression prefixes every bare identifier inside a SQL expression
// with the given table alias. It tokenizes the expression instead of using a
// regex so identifiers inside string literals stay untouched, skips the
// reserved identifier set (case-insensitive), and leaves already-qualified
// identifiers (tbl.col) alone.
func qualifyExpression(expr, alias string) string {
	var out strings.Builder

	runes := []rune(expr)

	i := 0
	for i < len(runes) {
		r := runes[i]

		// String literal: copy verbatim up to and including the closing quote.
		// Doubled quotes inside the literal are the T-SQL escape.
		if r == '\'' {
			out.WriteRune(r)
			i++

			for i < len(runes) {
				out.WriteRune(runes[i])

				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						i++
						out.WriteRune(runes[i])
						i++

						continue
					}

					i++

					break
				}

				i++
			}

			continue
		}

		if isIdentStart(r) {
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}

			ident := string(runes[start:i])

			out.WriteString(qualifyIdentifier(ident, alias, runes, start, i))

			continue
		}

		out.WriteRune(r)
		i++
	}

	return out.String()
}

func qualifyIdentifier(ident, alias string, runes []rune, start, end int) string {
	if _, reserved := reservedIdentifiers[strings.ToLower(ident)]; reserved {
		return ident
	}

	// Numbers never start an identifier, but an identifier may be the column
	// part of an already-qualified name: skip when adjacent to a dot.
	if prevNonSpace(runes, start) == '.' || nextNonSpace(runes, end) == '.' {
		return ident
	}

	return alias + "." + ident
}

func prevNonSpace(runes []rune, idx int) rune {
	for i := idx - 1; i >= 0; i-- {
		if runes[i] != ' ' && runes[i] != '\t' {
			return runes[i]
		}
	}

	return 0
}

func nextNonSpace(runes []rune, idx int) rune {
	for i := idx; i < len(runes); i++ {
		if runes[i] != ' ' && runes[i] != '\t' {
			return runes[i]
		}
	}

	return 0
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
