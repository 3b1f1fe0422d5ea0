package castcsv

import (
	"bufio"
	"errors"
	"io"
)

var (
	errNilWriter      = errors.New("castcsv: writer is nil")
	errWriterNoTarget = errors.New("castcsv: writer destination cannot be nil")
)

// Writer provides high-throughput CSV emission with configurable delimiters and quoting rules.
// Each record is assembled in memory and handed to the buffered destination in one call.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// Escape is written before Quote (and before itself) inside quoted fields.
	// Zero or Quote means quotes are doubled.
	Escape byte
	// Terminator ends every record. Default is "\n".
	Terminator string
	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool
	// OmitLastTerminator holds back the terminator of the latest record until another
	// record is written, so the output does not end with a line break.
	OmitLastTerminator bool

	line    []byte
	pending bool
	err     error
}

// NewWriter creates a new Writer with internal buffering tuned for bulk writes.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:        bufio.NewWriterSize(w, defaultBufferSize),
		Comma:      ',',
		Quote:      '"',
		Terminator: "\n",
		line:       make([]byte, 0, 256),
	}
}

// Reset updates the underlying writer while preserving the configuration flags.
// A terminator held back for the previous destination is dropped.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.pending = false
	w.err = nil
}

// Write emits a single CSV record followed by the terminator.
func (w *Writer) Write(record []string) error {
	if err := w.usable(); err != nil {
		return err
	}

	d := w.dialect()
	line := w.line[:0]
	if w.pending {
		line = append(line, d.terminator...)
		w.pending = false
	}
	for i, field := range record {
		if i > 0 {
			line = append(line, d.comma)
		}
		// A lone empty field is quoted so it does not read back as a blank line.
		force := w.AlwaysQuote || (len(record) == 1 && field == "")
		line = d.appendField(line, field, force)
	}
	if w.OmitLastTerminator {
		w.pending = true
	} else {
		line = append(line, d.terminator...)
	}
	w.line = line

	if _, err := w.dst.Write(line); err != nil {
		w.err = err
		return err
	}
	return nil
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
// A terminator held back by OmitLastTerminator stays held back.
func (w *Writer) Flush() error {
	if err := w.usable(); err != nil {
		return err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) usable() error {
	switch {
	case w == nil:
		return errNilWriter
	case w.dst == nil:
		return errWriterNoTarget
	}
	return w.err
}

// writeDialect is the effective output syntax of one Write call.
type writeDialect struct {
	comma, quote, escape byte
	terminator           string
}

func (w *Writer) dialect() writeDialect {
	d := writeDialect{comma: w.Comma, quote: w.Quote, escape: w.Escape, terminator: w.Terminator}
	if d.comma == 0 {
		d.comma = ','
	}
	if d.quote == 0 {
		d.quote = '"'
	}
	if d.escape == 0 {
		d.escape = d.quote
	}
	if d.terminator == "" {
		d.terminator = "\n"
	}
	return d
}

// appendField appends field to dst, quoted when force is set or the content requires it.
func (d writeDialect) appendField(dst []byte, field string, force bool) []byte {
	if !force && !d.needsQuote(field) {
		return append(dst, field...)
	}
	dst = append(dst, d.quote)
	start := 0
	for i := 0; i < len(field); i++ {
		if c := field[i]; c == d.quote || c == d.escape {
			dst = append(dst, field[start:i]...)
			dst = append(dst, d.escape, c)
			start = i + 1
		}
	}
	dst = append(dst, field[start:]...)
	return append(dst, d.quote)
}

func (d writeDialect) needsQuote(field string) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case d.quote, d.comma, '\n', '\r':
			return true
		}
	}
	return false
}
