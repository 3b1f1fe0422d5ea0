package castcsv

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"reflect"
	"slices"
)

var errEncoderClosed = errors.New("castcsv: encoder is closed")

// Encoder writes records of type T as CSV rows. The header row is written by
// NewEncoder, one row follows per Encode call. Close must be called to flush.
type Encoder[T any] struct {
	codec   *Codec
	out     io.WriteCloser
	rows    *Writer
	mapping *writeMapping
	tokens  []string
	row     int
	closed  bool
	err     error
}

// NewEncoder resolves T against header (declared fields when header is empty) and
// writes the header row to w. w is never closed.
func NewEncoder[T any](c *Codec, w io.Writer, header []string) (*Encoder[T], error) {
	s, err := c.schema(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	c.logUnmatchedAdapters(s)
	mapping, err := buildWriteMapping(s, header)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("castcsv: write mapping built", "type", s.name, "header", mapping.header)

	out := encodeCharset(w, c.charset)
	rows := c.cfg.writer(out)
	if err := rows.Write(mapping.header); err != nil {
		return nil, err
	}
	return &Encoder[T]{
		codec:   c,
		out:     out,
		rows:    rows,
		mapping: mapping,
		tokens:  make([]string, 0, len(mapping.columns)),
	}, nil
}

// Encode writes rec as the next row. After the first error every call returns it.
func (e *Encoder[T]) Encode(rec T) error {
	if e.closed {
		return errEncoderClosed
	}
	if e.err != nil {
		return e.err
	}
	e.row++
	tokens, err := e.mapping.encodeRow(reflect.ValueOf(&rec).Elem(), e.codec.cfg.NullCode, e.row, e.tokens)
	if err != nil {
		e.err = err
		return err
	}
	e.tokens = tokens
	if err := e.rows.Write(tokens); err != nil {
		e.err = err
		return err
	}
	return nil
}

// Close flushes buffered rows. It does not close the destination writer.
func (e *Encoder[T]) Close() error {
	if e.closed {
		return e.err
	}
	e.closed = true
	flushErr := e.rows.Flush()
	closeErr := e.out.Close()
	if e.err == nil {
		e.err = errors.Join(flushErr, closeErr)
	}
	e.codec.logger.Debug("castcsv: encode finished", "type", e.mapping.schema.name, "rows", e.row)
	return e.err
}

// EncodeSeq writes a header row and one row per record of seq, in order.
func EncodeSeq[T any](c *Codec, w io.Writer, seq iter.Seq[T], header []string) error {
	enc, err := NewEncoder[T](c, w, header)
	if err != nil {
		return err
	}
	for rec := range seq {
		if err := enc.Encode(rec); err != nil {
			_ = enc.Close()
			return err
		}
	}
	return enc.Close()
}

// EncodeAll writes a header row and one row per record. An empty slice writes the
// header row only.
func EncodeAll[T any](c *Codec, w io.Writer, records []T, header []string) error {
	return EncodeSeq(c, w, slices.Values(records), header)
}

// Marshal encodes records into an in-memory CSV document.
func Marshal[T any](c *Codec, records []T, header []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeAll(c, &buf, records, header); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
