package castcsv

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"reflect"
	"slices"
)

// decoder pulls rows from a Reader and converts them with a mapping built once.
type decoder[T any] struct {
	codec   *Codec
	rows    *Reader
	mapping *readMapping
	row     int
}

// newDecoder resolves T and the header before any data row is read. The header is
// the first row unless one is given. A nil decoder with a nil error means the input
// had no header row at all.
func newDecoder[T any](c *Codec, r io.Reader, header []string) (*decoder[T], error) {
	s, err := c.schema(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	c.logUnmatchedAdapters(s)

	rows := c.cfg.reader(decodeCharset(r, c.charset))
	if len(header) == 0 {
		first, err := rows.Read()
		if errors.Is(err, io.EOF) {
			c.logger.Debug("castcsv: empty input", "type", s.name)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		header = slices.Clone(first)
		// Width checks apply among data rows only.
		rows.ResetFieldCount()
	}

	mapping, err := buildReadMapping(s, header)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("castcsv: read mapping built", "type", s.name, "header", header, "fields", len(mapping.columns))
	return &decoder[T]{codec: c, rows: rows, mapping: mapping}, nil
}

// all yields records in input order until the input ends or a row fails. It can be
// ranged over once.
func (d *decoder[T]) all() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if d == nil {
			return
		}
		var zero T
		for {
			tokens, err := d.rows.Read()
			if errors.Is(err, io.EOF) {
				d.codec.logger.Debug("castcsv: decode finished", "type", d.mapping.schema.name, "rows", d.row)
				return
			}
			if err != nil {
				yield(zero, err)
				return
			}
			d.row++

			var rec T
			if err := d.mapping.decodeRow(tokens, d.codec.cfg.NullCode, d.row, reflect.ValueOf(&rec).Elem()); err != nil {
				yield(zero, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// DecodeLazy reads CSV from r and hands consume a lazy sequence of records of type T.
// Header and mapping errors are returned before consume is called. Rows are decoded as
// consume pulls them; a failing row is yielded with its error and ends the sequence.
// Stopping early leaves the remaining input unread. r is not closed.
func DecodeLazy[T, R any](c *Codec, r io.Reader, header []string, consume func(iter.Seq2[T, error]) (R, error)) (R, error) {
	d, err := newDecoder[T](c, r, header)
	if err != nil {
		var zero R
		return zero, err
	}
	return consume(d.all())
}

// Records returns a lazy sequence of records of type T read from r. Header and mapping
// errors are yielded as the first and only element.
func Records[T any](c *Codec, r io.Reader, header []string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		d, err := newDecoder[T](c, r, header)
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		d.all()(yield)
	}
}

// DecodeAll reads every record of type T from r. An input without a header row yields
// an empty slice. Any failing row fails the whole call.
func DecodeAll[T any](c *Codec, r io.Reader, header []string) ([]T, error) {
	return DecodeLazy(c, r, header, func(seq iter.Seq2[T, error]) ([]T, error) {
		out := []T{}
		for rec, err := range seq {
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		return out, nil
	})
}

// Unmarshal decodes in-memory CSV data into records of type T.
func Unmarshal[T any](c *Codec, data []byte, header []string) ([]T, error) {
	return DecodeAll[T](c, bytes.NewReader(data), header)
}
