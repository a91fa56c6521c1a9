package table

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wine-cli/internal/model"
)

func sampleRecords() []*model.RawRecord {
	a := model.NewRawRecord()
	a.Set(model.TitleKey, model.Text("Château A 2019"))
	a.Set("Region", model.Text("Bordeaux"))
	a.Set("Grapes", model.List("50% Merlot", "Cabernet Franc"))

	b := model.NewRawRecord()
	b.Set(model.TitleKey, model.Text("Domaine B"))
	b.Set("Alcohol", model.Text("13.5"))
	b.Set("Region", model.Text("Loire; Anjou"))
	return []*model.RawRecord{a, b}
}

func TestFromRecords_ColumnUnion(t *testing.T) {
	tbl := FromRecords(sampleRecords())
	assert.Equal(t, []string{"Title", "Region", "Grapes", "Alcohol"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "['50% Merlot', 'Cabernet Franc']", tbl.Rows[0]["Grapes"])
	assert.Equal(t, "", tbl.Rows[0]["Alcohol"])
	assert.Equal(t, "13.5", tbl.Rows[1]["Alcohol"])
}

func TestFromRecords_SingleGrapeStoredAsList(t *testing.T) {
	one := model.NewRawRecord()
	one.Set(model.TitleKey, model.Text("Solo"))
	one.Set(model.ColumnGrapes, model.Text("Merlot"))

	none := model.NewRawRecord()
	none.Set(model.TitleKey, model.Text("Blank"))
	none.Set(model.ColumnGrapes, model.Text(""))

	tbl := FromRecords([]*model.RawRecord{one, none})
	assert.Equal(t, "['Merlot']", tbl.Rows[0]["Grapes"])
	assert.Equal(t, "[]", tbl.Rows[1]["Grapes"])
}

func TestWrite_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FromRecords(sampleRecords())))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, ";Title;Region;Grapes;Alcohol", lines[0])
	assert.Equal(t, "0;Château A 2019;Bordeaux;['50% Merlot', 'Cabernet Franc'];", lines[1])
	assert.Equal(t, `1;Domaine B;"Loire; Anjou";;13.5`, lines[2])
}

func TestReadWrite_RoundTrip(t *testing.T) {
	orig := FromRecords(sampleRecords())
	orig.Rows[0]["Region"] = `Say "hi"`

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, orig))

	got, err := Read(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, orig.Columns, got.Columns)
	assert.Equal(t, orig.Rows, got.Rows)
}

func TestRead_ShortRowsAndHeaderOnly(t *testing.T) {
	got, err := Read(context.Background(), strings.NewReader(";Title;Oak\n0;Wine\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Oak"}, got.Columns)
	assert.Equal(t, "Wine", got.Rows[0]["Title"])
	assert.Equal(t, "", got.Rows[0]["Oak"])

	empty, err := Read(context.Background(), strings.NewReader(";Title;Oak\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Oak"}, empty.Columns)
	assert.Equal(t, 0, empty.Len())
}

func TestRead_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Read(ctx, strings.NewReader(";Title\n0;Wine\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTable_AddColumn(t *testing.T) {
	tbl := &Table{Columns: []string{"Title"}}
	tbl.AddColumn("Oak")
	tbl.AddColumn("Title")
	assert.Equal(t, []string{"Title", "Oak"}, tbl.Columns)
	assert.True(t, tbl.HasColumn("Oak"))
}

func TestDir_SaveLoad(t *testing.T) {
	d := NewDir(filepath.Join(t.TempDir(), "data"))

	path, err := d.Save("France", FromRecords(sampleRecords()))
	require.NoError(t, err)
	assert.Equal(t, "wine_data_france.csv", filepath.Base(path))

	got, err := d.Load(context.Background(), "france")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	raw, err := d.Raw("FRANCE")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte(";Title;")))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestDir_NotFound(t *testing.T) {
	d := NewDir(t.TempDir())
	_, err := d.Load(context.Background(), "italy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestNewDir_DefaultsToWorkingDir(t *testing.T) {
	assert.Equal(t, ".", NewDir("").Root())
}
