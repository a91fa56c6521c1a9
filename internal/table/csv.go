package table

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
)

// Separator is the field delimiter of the persisted table.
const Separator = ';'

// Write encodes t with a leading unnamed index column (0..n-1).
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator

	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, "")
	header = append(header, t.Columns...)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "table: write header")
	}

	record := make([]string, len(t.Columns)+1)
	for i, row := range t.Rows {
		record[0] = strconv.Itoa(i)
		for j, col := range t.Columns {
			record[j+1] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrapf(err, "table: write row %d", i)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "table: flush")
	}
	return nil
}

// Read decodes a persisted table. The first column is the index and is
// dropped; short rows leave their trailing columns empty.
func Read(ctx context.Context, r io.Reader) (*Table, error) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamRows(ctx, r, headerCh)

	var t *Table
	for rec := range rowCh {
		if t == nil {
			t = newTable(<-headerCh)
		}
		row := make(Row, len(t.Columns))
		for j, col := range t.Columns {
			if j+1 < len(rec) {
				row[col] = rec[j+1]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if t == nil {
		select {
		case header := <-headerCh:
			t = newTable(header)
		default:
			t = &Table{}
		}
	}
	return t, nil
}

func newTable(header []string) *Table {
	t := &Table{}
	if len(header) > 1 {
		t.Columns = append(t.Columns, header[1:]...)
	}
	return t
}

// StreamRows reads semicolon-separated rows and sends them to a channel.
// The header row goes to headerCh, which must be buffered. Both returned
// channels are closed when processing completes.
func StreamRows(ctx context.Context, r io.Reader, headerCh chan<- []string) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.Comma = Separator
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "table: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "table: read row")
				return
			}

			if first {
				first = false
				headerCh <- record
				continue
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "table: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
