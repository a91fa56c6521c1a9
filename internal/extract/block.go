package extract

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wine-cli/internal/model"
)

// GrapesLabel is the label whose value runs to the end of an info block.
const GrapesLabel = "Grapes"

// ErrUnpairedLabel is returned when an info block ends on a label that has
// no value after it.
var ErrUnpairedLabel = errors.New("label without value")

// ParseBlock splits a newline-delimited label/value block into attributes.
// Tokens alternate label, value, each trimmed of surrounding whitespace;
// trailing blank lines are dropped. The Grapes label takes every remaining
// token as its list value and ends the scan.
func ParseBlock(text string) (*model.RawRecord, error) {
	tokens := strings.Split(strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n")), "\n")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}

	rec := model.NewRawRecord()
	for i := 0; i < len(tokens); i += 2 {
		label := tokens[i]
		if label == GrapesLabel {
			rec.Set(label, model.List(tokens[i+1:]...))
			break
		}
		if i+1 >= len(tokens) {
			return nil, eris.Wrapf(ErrUnpairedLabel, "extract: block label %q", label)
		}
		rec.Set(label, model.Text(tokens[i+1]))
	}
	return rec, nil
}
