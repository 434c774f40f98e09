package service

import "strings"

// searchClause builds the free text predicate shared by the search queries:
// every term must match at least one of the given columns (LIKE, substring),
// terms are ANDed together. Returns the SQL fragment and its bind args.
// Pure function so the composed SQL stays testable without a database.
func searchClause(columns, terms []string) (string, []interface{}) {
	var perTerm []string
	var args []interface{}

	for _, term := range terms {
		pattern := "%" + escapeLike(term) + "%"
		var perColumn []string
		for _, column := range columns {
			perColumn = append(perColumn, column+" LIKE ? ESCAPE '\\'")
			args = append(args, pattern)
		}
		perTerm = append(perTerm, "("+strings.Join(perColumn, " OR ")+")")
	}

	return strings.Join(perTerm, " AND "), args
}

// escapeLike neutralizes LIKE wildcards inside a user supplied term.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return replacer.Replace(term)
}
