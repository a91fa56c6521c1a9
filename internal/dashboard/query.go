package dashboard

import (
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wine-cli/internal/explore"
	"github.com/sells-group/wine-cli/internal/model"
)

const (
	paramGrape      = "grape"
	paramAlcoholMin = "alcohol_min"
	paramAlcoholMax = "alcohol_max"
	paramVintageMin = "vintage_min"
	paramVintageMax = "vintage_max"
)

var reserved = map[string]struct{}{
	paramGrape:      {},
	paramAlcoholMin: {},
	paramAlcoholMax: {},
	paramVintageMin: {},
	paramVintageMax: {},
}

// ParseFilter builds a Filter from query parameters. Every non-reserved
// key is a categorical column whose repeated values are accepted. A range
// with only one bound takes the other from the observed data.
func ParseFilter(q url.Values, wines []model.Wine) (explore.Filter, error) {
	f := explore.Filter{
		Categories: make(map[string][]string),
		Grapes:     q[paramGrape],
	}
	for key, values := range q {
		if _, ok := reserved[key]; ok {
			continue
		}
		f.Categories[key] = values
	}

	alcohol, vintage := explore.FullRange(wines)

	var err error
	if f.Alcohol, err = parseRange(q, paramAlcoholMin, paramAlcoholMax, alcohol); err != nil {
		return explore.Filter{}, err
	}
	if f.Vintage, err = parseRange(q, paramVintageMin, paramVintageMax, vintage); err != nil {
		return explore.Filter{}, err
	}
	return f, nil
}

func parseRange(q url.Values, minKey, maxKey string, full explore.Range) (*explore.Range, error) {
	minStr, maxStr := q.Get(minKey), q.Get(maxKey)
	if minStr == "" && maxStr == "" {
		return nil, nil
	}

	r := full
	if minStr != "" {
		v, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			return nil, eris.Errorf("invalid %s %q", minKey, minStr)
		}
		r.Min = v
	}
	if maxStr != "" {
		v, err := strconv.ParseFloat(maxStr, 64)
		if err != nil {
			return nil, eris.Errorf("invalid %s %q", maxKey, maxStr)
		}
		r.Max = v
	}
	return &r, nil
}
