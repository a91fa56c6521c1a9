package extract

import (
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/wine-cli/internal/model"
)

// Selectors locate the parts of a wine detail page.
type Selectors struct {
	Title string
	Label string
	Value string
}

// DefaultSelectors match the Decanter wine detail layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Title: `h1.WineInfo_wine-title__X8VR4`,
		Label: `div[class*="WineInfo_wineInfo__item__type"]`,
		Value: `div[class*="WineInfo_wineInfo__item__value"] > div`,
	}
}

var (
	// fragmentRe captures the inner content of a value wrapper div.
	fragmentRe = regexp.MustCompile(`<div>(.*)</div>`)
	// subValueRe picks each text run that ends right before a tag. Used only
	// when a fragment has markup but no child divs.
	subValueRe = regexp.MustCompile(`([\p{L}\p{N}_]*\s?[\p{L}\p{N}_]+%?)\s*<`)
)

// PageParser extracts a RawRecord from a wine detail page.
type PageParser struct {
	sel Selectors
}

// NewPageParser creates a parser. Empty selector fields use the defaults.
func NewPageParser(sel Selectors) *PageParser {
	def := DefaultSelectors()
	if sel.Title == "" {
		sel.Title = def.Title
	}
	if sel.Label == "" {
		sel.Label = def.Label
	}
	if sel.Value == "" {
		sel.Value = def.Value
	}
	return &PageParser{sel: sel}
}

// ParsePage extracts a record using the default selectors.
func ParsePage(r io.Reader) (*model.RawRecord, error) {
	return NewPageParser(Selectors{}).Parse(r)
}

// Parse reads an HTML page and returns its title plus every labelled
// attribute. Labels and values are paired by position; extra entries on
// either side are dropped.
func (p *PageParser) Parse(r io.Reader) (*model.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}

	rec := model.NewRawRecord()
	rec.Set(model.TitleKey, model.Text(strings.TrimSpace(doc.Find(p.sel.Title).First().Text())))

	var labels []string
	doc.Find(p.sel.Label).Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(s.Text()))
	})

	var fragments []string
	var outerErr error
	doc.Find(p.sel.Value).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		outer, err := goquery.OuterHtml(s)
		if err != nil {
			outerErr = eris.Wrap(err, "extract: render value fragment")
			return false
		}
		if m := fragmentRe.FindStringSubmatch(outer); m != nil {
			fragments = append(fragments, html.UnescapeString(m[1]))
		}
		return true
	})
	if outerErr != nil {
		return nil, outerErr
	}

	n := min(len(labels), len(fragments))
	for i := 0; i < n; i++ {
		v := ResolveFragment(fragments[i])
		if labels[i] == GrapesLabel {
			v = asList(v)
		}
		rec.Set(labels[i], v)
	}
	return rec, nil
}

// ResolveFragment turns one value fragment into a Value. Each child div
// of the fragment is one sub-value. A fragment whose sub-values resolve to
// nothing keeps its own text.
func ResolveFragment(fragment string) model.Value {
	v := resolveSubValues(subValues(fragment))
	if !v.IsList() && v.String() == "" {
		return model.Text(fragment)
	}
	return v
}

func subValues(fragment string) []string {
	if !strings.Contains(fragment, "<") {
		return nil
	}
	var subs []string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err == nil {
		doc.Find("body").Children().Filter("div").Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				subs = append(subs, text)
			}
		})
	}
	if len(subs) > 0 {
		return subs
	}
	for _, m := range subValueRe.FindAllStringSubmatch(fragment, -1) {
		subs = append(subs, m[1])
	}
	return subs
}

// resolveSubValues: none -> "", one -> itself, more -> grape list.
func resolveSubValues(subs []string) model.Value {
	switch len(subs) {
	case 0:
		return model.Text("")
	case 1:
		return model.Text(subs[0])
	default:
		return model.List(ParseGrapes(subs)...)
	}
}

// asList keeps a list as is and wraps a single text value.
func asList(v model.Value) model.Value {
	if v.IsList() {
		return v
	}
	if v.String() == "" {
		return model.List()
	}
	return model.List(ParseGrapes([]string{v.String()})...)
}
