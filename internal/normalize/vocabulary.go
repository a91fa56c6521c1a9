package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/wine-cli/internal/model"
)

var vocabStripRe = regexp.MustCompile(`[0-9%.\s"]`)

// Vocabulary builds the sorted set of grape terms found in the table.
// Percentages, digits, periods, spaces and quotes are removed, so "50%
// Cabernet Franc" contributes "CabernetFranc".
func Vocabulary(wines []model.Wine) []string {
	seen := make(map[string]struct{})
	for _, w := range wines {
		for _, g := range w.Grapes {
			term := vocabStripRe.ReplaceAllString(g, "")
			for _, part := range strings.Split(term, ",") {
				if part == "" {
					continue
				}
				seen[part] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for term := range seen {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Categories joins, in vocabulary order, every term that occurs in the
// record's grape text once spaces and quotes are stripped.
func Categories(vocab []string, grapes []string) string {
	text := grapeText(grapes)
	var hits []string
	for _, term := range vocab {
		if term != "" && strings.Contains(text, term) {
			hits = append(hits, term)
		}
	}
	return strings.Join(hits, ", ")
}

func grapeText(grapes []string) string {
	text := strings.Join(grapes, ",")
	text = strings.ReplaceAll(text, " ", "")
	return strings.ReplaceAll(text, `"`, "")
}
