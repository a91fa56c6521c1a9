package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlock_GrapesConsumesRest(t *testing.T) {
	rec, err := ParseBlock("Country\nFrance\nGrapes\nMerlot\nCabernet")
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", "Grapes"}, rec.Keys())
	country, _ := rec.Get("Country")
	assert.Equal(t, "France", country.String())

	grapes, _ := rec.Get("Grapes")
	require.True(t, grapes.IsList())
	assert.Equal(t, []string{"Merlot", "Cabernet"}, grapes.Items())
}

func TestParseBlock_PairsOnly(t *testing.T) {
	rec, err := ParseBlock("Region\nRhône\r\nVintage\n2018")
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "Vintage"}, rec.Keys())
	v, _ := rec.Get("Vintage")
	assert.Equal(t, "2018", v.String())
}

func TestParseBlock_GrapesLastWithNothingAfter(t *testing.T) {
	rec, err := ParseBlock("Region\nLoire\nGrapes")
	require.NoError(t, err)
	grapes, ok := rec.Get("Grapes")
	require.True(t, ok)
	assert.True(t, grapes.IsList())
	assert.Empty(t, grapes.Items())
}

func TestParseBlock_UnpairedLabel(t *testing.T) {
	_, err := ParseBlock("Region\nLoire\nOak")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnpairedLabel))
}

func TestParseBlock_TrailingWhitespace(t *testing.T) {
	rec, err := ParseBlock("Region\nLoire \nVintage\n2018\n\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "Vintage"}, rec.Keys())
	region, _ := rec.Get("Region")
	assert.Equal(t, "Loire", region.String())

	rec, err = ParseBlock("Region\nLoire\nGrapes\nChenin Blanc\n")
	require.NoError(t, err)
	grapes, _ := rec.Get("Grapes")
	assert.Equal(t, []string{"Chenin Blanc"}, grapes.Items())
}
