package dashboard

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/wine-cli/internal/model"
)

// exportSheet is the sheet name used for exported selections.
const exportSheet = "Wines"

// WriteXLSX writes the wines as one sheet with a header row of columns.
func WriteXLSX(w io.Writer, columns []string, wines []model.Wine) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(exportSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().SetString(col)
	}

	for _, wine := range wines {
		row := sheet.AddRow()
		for _, col := range columns {
			cell := row.AddCell()
			switch col {
			case model.ColumnAlcohol:
				cell.SetFloat(wine.Alcohol)
			case model.ColumnVintage:
				if wine.Vintage != nil {
					cell.SetFloat(*wine.Vintage)
				}
			default:
				cell.SetString(wine.Cell(col))
			}
		}
	}

	return eris.Wrap(f.Write(w), "xlsx: write")
}
