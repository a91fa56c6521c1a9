package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wine-cli/internal/explore"
	"github.com/sells-group/wine-cli/internal/model"
)

func vintage(v float64) *float64 { return &v }

func sampleWines() []model.Wine {
	return []model.Wine{
		{Title: "A", Alcohol: 13.5, Vintage: vintage(2018), GrapeCategories: "Merlot", Fields: map[string]string{"Region": "Bordeaux"}},
		{Title: "B", Alcohol: 12, Vintage: vintage(2020), GrapeCategories: "SauvignonBlanc", Fields: map[string]string{"Region": "Loire"}},
		{Title: "C", Alcohol: 14, Vintage: nil, GrapeCategories: "Merlot", Fields: map[string]string{"Region": "Bordeaux"}},
	}
}

func TestParseFilterFlags(t *testing.T) {
	f, err := parseFilterFlags(sampleWines(), []string{"Region=Bordeaux, Loire", "Colour=Red"}, []string{"Merlot"}, "13:", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bordeaux", "Loire"}, f.Categories["Region"])
	assert.Equal(t, []string{"Red"}, f.Categories["Colour"])
	assert.Equal(t, []string{"Merlot"}, f.Grapes)
	require.NotNil(t, f.Alcohol)
	assert.Equal(t, explore.Range{Min: 13, Max: 14}, *f.Alcohol)
	assert.Nil(t, f.Vintage)
}

func TestParseFilterFlags_Invalid(t *testing.T) {
	_, err := parseFilterFlags(nil, []string{"Region"}, nil, "", "")
	assert.Error(t, err)

	_, err = parseFilterFlags(nil, nil, nil, "12-14", "")
	assert.Error(t, err)

	_, err = parseFilterFlags(nil, nil, nil, "", "old:2020")
	assert.Error(t, err)
}

func TestParseBounds(t *testing.T) {
	full := explore.Range{Min: 1990, Max: 2022}

	r, err := parseBounds("vintage", ":2000", full)
	require.NoError(t, err)
	assert.Equal(t, explore.Range{Min: 1990, Max: 2000}, *r)

	r, err = parseBounds("vintage", "2001:2005", full)
	require.NoError(t, err)
	assert.Equal(t, explore.Range{Min: 2001, Max: 2005}, *r)

	r, err = parseBounds("vintage", "", full)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestRenderWines(t *testing.T) {
	var buf bytes.Buffer
	renderWines(&buf, []string{"Title", "Region", "Vintage"}, sampleWines())

	out := buf.String()
	assert.Contains(t, out, "Region")
	assert.Contains(t, out, "Bordeaux")
	assert.Contains(t, out, "2018")
}

func TestRenderGroups(t *testing.T) {
	var buf bytes.Buffer
	renderGroups(&buf, []string{"Region"}, true, explore.GroupMean(sampleWines(), "Region"))

	out := buf.String()
	assert.Contains(t, out, "Mean Alcohol")
	assert.Contains(t, out, "13.75")
	assert.Contains(t, out, "Loire")
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	renderSummary(&buf, explore.Describe(sampleWines()))

	out := buf.String()
	assert.Contains(t, out, "Alcohol")
	assert.Contains(t, out, "Vintage")
	assert.Contains(t, out, "25%")
}

func TestFormatMean(t *testing.T) {
	assert.Equal(t, "-", formatMean(nil))
	v := 12.345
	assert.Equal(t, "12.35", formatMean(&v))
}
