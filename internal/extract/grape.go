// Package extract turns scraped wine pages into raw records.
package extract

import (
	"sort"
	"strings"
	"unicode"
)

// ParseGrapes splits a flat token list into grape entries, stepping two
// tokens at a time. A token that starts with a digit is a percentage and is
// merged with the token after it ("50%", "Merlot" -> "50% Merlot").
// Otherwise both tokens of the pair become separate entries.
//
// The result is a set: exact duplicates collapse, while entries that differ
// only in case or inner whitespace stay distinct. It is returned sorted.
func ParseGrapes(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	add := func(s string) { seen[s] = struct{}{} }

	for i := 0; i < len(tokens); i += 2 {
		first := strings.TrimSpace(tokens[i])
		hasNext := i+1 < len(tokens)

		if startsWithDigit(tokens[i]) {
			if hasNext {
				add(first + " " + strings.TrimSpace(tokens[i+1]))
			} else {
				add(first)
			}
			continue
		}

		add(first)
		if hasNext {
			add(strings.TrimSpace(tokens[i+1]))
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}
