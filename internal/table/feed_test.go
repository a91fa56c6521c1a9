package table

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFeed(t *testing.T) {
	feed := `[
  {"Title": "Wine A", "Region": "Alsace", "Grapes": ["Riesling", "Pinot Gris"]},
  {"Title": "Wine B", "Vintage": "2015"}
]`
	recs, err := DecodeFeed(context.Background(), strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, []string{"Title", "Region", "Grapes"}, recs[0].Keys())
	grapes, _ := recs[0].Get("Grapes")
	assert.True(t, grapes.IsList())
	assert.Equal(t, []string{"Riesling", "Pinot Gris"}, grapes.Items())

	tbl := FromRecords(recs)
	assert.Equal(t, []string{"Title", "Region", "Grapes", "Vintage"}, tbl.Columns)
	assert.Equal(t, "['Riesling', 'Pinot Gris']", tbl.Rows[0]["Grapes"])
}

func TestDecodeFeed_EmptyInput(t *testing.T) {
	recs, err := DecodeFeed(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDecodeFeed_NotAnArray(t *testing.T) {
	_, err := DecodeFeed(context.Background(), strings.NewReader(`{"Title": "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")
}

func TestEncodeFeed_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFeed(&buf, sampleRecords()))

	recs, err := DecodeFeed(context.Background(), &buf)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, sampleRecords()[1].Keys(), recs[1].Keys())
}

func TestEncodeFeed_Nil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFeed(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
