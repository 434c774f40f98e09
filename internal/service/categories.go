package service

import "strings"

// ParseCategories splits the raw category string of a post into the ordered
// list of non-empty tags. Commas and semicolons count as separators too.
func ParseCategories(raw string) []string {
	return ParseCategoriesSep(raw, " ")
}

// ParseCategoriesSep is ParseCategories with a caller-chosen separator.
// No case or whitespace normalization happens beyond dropping empty tokens.
func ParseCategoriesSep(raw, sep string) []string {
	raw = strings.ReplaceAll(raw, ",", sep)
	raw = strings.ReplaceAll(raw, ";", sep)

	var categories []string
	for _, token := range strings.Split(raw, sep) {
		if token != "" {
			categories = append(categories, token)
		}
	}
	return categories
}
