package castcsv

import (
	"errors"
	"fmt"
	"io"
	"unsafe"
)

const defaultBufferSize = 1 << 12 // 4096 bytes

var (
	// ErrBareQuote is returned when an unexpected quote is found in an unquoted field.
	ErrBareQuote = errors.New("castcsv: bare quote in non-quoted field")
	// ErrUnterminatedQuote is returned when a quoted field is not closed before EOF.
	ErrUnterminatedQuote = errors.New("castcsv: unterminated quoted field")
	// ErrorFieldCount is returned when a record contains an unexpected number of fields.
	ErrorFieldCount = errors.New("castcsv: wrong number of fields")
	// ErrEmptyLine is returned for a blank line when SkipEmptyLines is off.
	ErrEmptyLine = errors.New("castcsv: empty line")
)

// ParseError contains location information for CSV parsing errors.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("castcsv: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// dialect holds the effective special bytes of a Reader and the lookup tables
// that stop the bulk copy loops.
type dialect struct {
	comma, quote, escape byte

	plainStop  [256]bool
	quotedStop [256]bool
}

func newDialect(comma, quote, escape byte) *dialect {
	d := &dialect{comma: comma, quote: quote, escape: escape}
	for _, b := range []byte{comma, quote, '\n', '\r'} {
		d.plainStop[b] = true
	}
	for _, b := range []byte{quote, escape, '\n'} {
		d.quotedStop[b] = true
	}
	return d
}

// stopAt returns the index of the first byte of data marked in stop, or -1.
func stopAt(data []byte, stop *[256]bool) int {
	for i, b := range data {
		if stop[b] {
			return i
		}
	}
	return -1
}

// Reader provides high-performance CSV parsing with support for customizable delimiters.
type Reader struct {
	src io.Reader

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// Escape escapes Quote (and itself) inside quoted fields. Zero or Quote means RFC 4180 doubling.
	Escape byte
	// ReuseRecord indicates whether Read should reuse the backing array of the returned slice.
	ReuseRecord bool
	// FieldsPerRecord expects each record to contain this many fields. Zero captures the width
	// of the first record, a negative value disables the check.
	FieldsPerRecord int
	// SkipEmptyLines drops blank lines instead of failing with ErrEmptyLine.
	SkipEmptyLines bool
	// SkipMismatched drops records whose width differs from FieldsPerRecord instead of failing.
	SkipMismatched bool

	buf    []byte
	bufPos int
	bufLen int
	bufErr error
	d      *dialect

	// text holds the unescaped bytes of the current record, ends the end offset of each field.
	text     []byte
	ends     []int
	record   []string
	finished bool

	line       int
	col        int
	recordLine int
	quoted     bool
}

// NewReader creates a Reader that consumes CSV data from r. It panics if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("castcsv: reader source cannot be nil")
	}

	return &Reader{
		src:    r,
		Comma:  ',',
		Quote:  '"',
		buf:    make([]byte, defaultBufferSize),
		text:   make([]byte, 0, 512),
		ends:   make([]int, 0, 16),
		record: make([]string, 0, 16),
		line:   1,
	}
}

// Read parses the next CSV record. The returned slice may share storage with the next
// call when ReuseRecord is true; io.EOF signals that no more records remain.
// Blank lines and records of the wrong width are skipped or reported according to
// SkipEmptyLines and SkipMismatched.
func (r *Reader) Read() ([]string, error) {
	for {
		record, err := r.readRecord()
		if err != nil {
			return nil, err
		}
		if len(record) == 1 && record[0] == "" && !r.quoted {
			if r.SkipEmptyLines {
				continue
			}
			return nil, r.errorAt(r.recordLine, 1, ErrEmptyLine)
		}
		switch {
		case r.FieldsPerRecord == 0:
			r.FieldsPerRecord = len(record)
		case r.FieldsPerRecord > 0 && len(record) != r.FieldsPerRecord:
			if r.SkipMismatched {
				continue
			}
			return record, r.errorAt(r.recordLine, 1, ErrorFieldCount)
		}
		return record, nil
	}
}

// ResetFieldCount forgets the captured record width so the next record sets it again.
// It has no effect when FieldsPerRecord is negative.
func (r *Reader) ResetFieldCount() {
	if r.FieldsPerRecord > 0 {
		r.FieldsPerRecord = 0
	}
}

// ReadAll reads the remaining records. It returns the first error other than io.EOF
// and no records in that case.
func (r *Reader) ReadAll() ([][]string, error) {
	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func (r *Reader) dialect() *dialect {
	comma, quote, escape := r.Comma, r.Quote, r.Escape
	if comma == 0 {
		comma = ','
	}
	if quote == 0 {
		quote = '"'
	}
	if escape == 0 {
		escape = quote
	}
	if r.d == nil || r.d.comma != comma || r.d.quote != quote || r.d.escape != escape {
		r.d = newDialect(comma, quote, escape)
	}
	return r.d
}

// readRecord parses one physical record without applying the width and blank-line rules.
func (r *Reader) readRecord() ([]string, error) {
	if r == nil || r.src == nil || r.finished {
		return nil, io.EOF
	}
	d := r.dialect()
	r.recordLine = r.line
	r.col = 1
	r.quoted = false
	r.text = r.text[:0]
	r.ends = r.ends[:0]

	for {
		last, err := r.readField(d)
		if err != nil {
			return nil, err
		}
		if last {
			return r.buildRecord(), nil
		}
	}
}

// readField appends the next field to the record and reports whether it was the last one.
// A quoted section may only open the field; whatever follows its closing quote up to the
// delimiter is kept as plain text.
func (r *Reader) readField(d *dialect) (bool, error) {
	quoted := false
	if err := r.fill(); err == nil && r.buf[r.bufPos] == d.quote {
		r.bufPos++
		r.col++
		r.quoted = true
		quoted = true
		if err := r.readQuoted(d); err != nil {
			return false, err
		}
	}

	for {
		if err := r.fill(); err != nil {
			if !errors.Is(err, io.EOF) {
				return false, err
			}
			r.finished = true
			if len(r.ends) == 0 && len(r.text) == 0 && !quoted {
				return false, io.EOF
			}
			r.ends = append(r.ends, len(r.text))
			return true, nil
		}

		data := r.buf[r.bufPos:r.bufLen]
		i := stopAt(data, &d.plainStop)
		if i < 0 {
			r.text = append(r.text, data...)
			r.bufPos = r.bufLen
			r.col += len(data)
			continue
		}
		r.text = append(r.text, data[:i]...)
		r.bufPos += i + 1
		r.col += i

		switch data[i] {
		case d.comma:
			r.ends = append(r.ends, len(r.text))
			r.col++
			return false, nil
		case d.quote:
			return false, r.errorAt(r.line, r.col, ErrBareQuote)
		case '\r':
			// CRLF ends the record as one terminator.
			next, err := r.peek()
			if err == nil && next == '\n' {
				r.bufPos++
			} else if err != nil && !errors.Is(err, io.EOF) {
				return false, err
			}
		}
		r.ends = append(r.ends, len(r.text))
		r.line++
		r.col = 1
		return true, nil
	}
}

// readQuoted consumes a quoted section after its opening quote, up to and including
// the closing quote.
func (r *Reader) readQuoted(d *dialect) error {
	for {
		if err := r.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				r.finished = true
				return r.errorAt(r.line, r.col, ErrUnterminatedQuote)
			}
			return err
		}

		data := r.buf[r.bufPos:r.bufLen]
		i := stopAt(data, &d.quotedStop)
		if i < 0 {
			r.text = append(r.text, data...)
			r.bufPos = r.bufLen
			r.col += len(data)
			continue
		}
		r.text = append(r.text, data[:i]...)
		r.bufPos += i + 1
		r.col += i
		b := data[i]

		switch {
		case b == '\n':
			r.text = append(r.text, b)
			r.line++
			r.col = 1
		case b == d.escape && d.escape != d.quote:
			// The escape byte is literal unless a quote or another escape follows.
			next, err := r.peek()
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if err == nil && (next == d.quote || next == d.escape) {
				r.bufPos++
				r.text = append(r.text, next)
				r.col += 2
				continue
			}
			r.text = append(r.text, b)
			r.col++
		default:
			next, err := r.peek()
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if err == nil && next == d.quote {
				// A doubled quote is accepted with any escape byte.
				r.bufPos++
				r.text = append(r.text, b)
				r.col += 2
				continue
			}
			r.col++
			return nil
		}
	}
}

// buildRecord slices the record text at the field ends, sharing one string for all
// fields. With ReuseRecord the string aliases the text buffer.
func (r *Reader) buildRecord() []string {
	n := len(r.ends)

	var text string
	if r.ReuseRecord {
		if len(r.text) > 0 {
			text = unsafe.String(unsafe.SliceData(r.text), len(r.text))
		}
		if cap(r.record) < n {
			r.record = make([]string, n)
		}
		r.record = r.record[:n]
	} else {
		text = string(r.text)
		r.record = make([]string, n)
	}

	start := 0
	for i, end := range r.ends {
		r.record[i] = text[start:end]
		start = end
	}
	return r.record
}

func (r *Reader) errorAt(line, column int, err error) error {
	return &ParseError{Line: line, Column: column, Err: err}
}

// fill makes at least one unread byte available. Buffered bytes are never discarded,
// so a refill only happens once the previous chunk is fully consumed.
func (r *Reader) fill() error {
	for r.bufPos >= r.bufLen {
		if r.bufErr != nil {
			return r.bufErr
		}
		n, err := r.src.Read(r.buf)
		r.bufPos, r.bufLen, r.bufErr = 0, n, err
	}
	return nil
}

// peek returns the next byte without consuming it.
func (r *Reader) peek() (byte, error) {
	if err := r.fill(); err != nil {
		return 0, err
	}
	return r.buf[r.bufPos], nil
}
