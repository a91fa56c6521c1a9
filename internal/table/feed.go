package table

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wine-cli/internal/model"
)

// DecodeFeed reads the crawler's JSON feed: an array of objects whose
// values are strings or arrays of strings.
func DecodeFeed(ctx context.Context, r io.Reader) ([]*model.RawRecord, error) {
	recCh, errCh := decodeArray[*model.RawRecord](ctx, r)

	var recs []*model.RawRecord
	for rec := range recCh {
		recs = append(recs, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return recs, nil
}

// EncodeFeed writes records as a JSON feed, keeping label order.
func EncodeFeed(w io.Writer, recs []*model.RawRecord) error {
	if recs == nil {
		recs = []*model.RawRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(recs); err != nil {
		return eris.Wrap(err, "feed: encode")
	}
	return nil
}

// decodeArray decodes a JSON array streaming, sending each element to a
// channel. Both channels are closed when processing completes.
func decodeArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "feed: read opening token")
			return
		}

		delim, ok := tok.(json.Delim)
		if !ok || delim != '[' {
			errCh <- eris.Errorf("feed: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "feed: context cancelled")
				return
			}

			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "feed: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "feed: context cancelled")
				return
			}
		}

		if _, err := decoder.Token(); err != nil && err != io.EOF {
			errCh <- eris.Wrap(err, "feed: read closing token")
		}
	}()

	return outCh, errCh
}
