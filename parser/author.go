package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	firstNameNoise = regexp.MustCompile(`\d+|-`)
	innerSpace     = regexp.MustCompile(`\s+`)
)

// TransformAuthor turns a catalogue creator string into "First Last".
// Parenthetical qualifiers and anything after a semicolon are dropped. A
// comma marks "Last, First"; birth/death dates in the first-name part are
// removed.
//
//	"Doe, Jane, 1950-"        -> "Jane Doe"
//	"Smith, John (Editor)"    -> "John Smith"
//	"Plato; Jowett, Benjamin" -> "Plato"
func TransformAuthor(creator string) string {
	s := norm.NFC.String(creator)
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return collapse(s)
	}

	last := parts[0]
	first := firstNameNoise.ReplaceAllString(parts[1], "")
	return collapse(first + " " + last)
}

func collapse(s string) string {
	return strings.TrimSpace(innerSpace.ReplaceAllString(s, " "))
}
