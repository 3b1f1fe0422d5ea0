package castcsv

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records [][]string
		config  func(*Writer)
		want    string
	}{
		{
			name:    "basic",
			records: [][]string{{"a", "b", "c"}},
			want:    "a,b,c\n",
		},
		{
			name: "multipleRecords",
			records: [][]string{
				{"alpha", "beta"},
				{"gamma", "delta"},
			},
			want: "alpha,beta\ngamma,delta\n",
		},
		{
			name:    "emptyField",
			records: [][]string{{"", "b"}},
			want:    ",b\n",
		},
		{
			name:    "loneEmptyFieldQuoted",
			records: [][]string{{"a"}, {""}},
			want:    "a\n\"\"\n",
		},
		{
			name:    "commaForcesQuote",
			records: [][]string{{"alpha,beta"}},
			want:    "\"alpha,beta\"\n",
		},
		{
			name: "quoteEscaping",
			records: [][]string{
				{"he said \"hello\"", "plain"},
			},
			want: "\"he said \"\"hello\"\"\",plain\n",
		},
		{
			name: "newlineForcesQuote",
			records: [][]string{
				{"multi\nline", "z"},
			},
			want: "\"multi\nline\",z\n",
		},
		{
			name: "alwaysQuote",
			records: [][]string{
				{"alpha", "beta"},
			},
			config: func(w *Writer) {
				w.AlwaysQuote = true
			},
			want: "\"alpha\",\"beta\"\n",
		},
		{
			name: "customComma",
			records: [][]string{
				{"a;b", "c"},
			},
			config: func(w *Writer) {
				w.Comma = ';'
			},
			want: "\"a;b\";c\n",
		},
		{
			name: "customQuote",
			records: [][]string{
				{"alpha'beta", "plain"},
			},
			config: func(w *Writer) {
				w.Quote = '\''
			},
			want: "'alpha''beta',plain\n",
		},
		{
			name: "crlfTerminator",
			records: [][]string{
				{"a"},
				{"b"},
			},
			config: func(w *Writer) {
				w.Terminator = "\r\n"
			},
			want: "a\r\nb\r\n",
		},
		{
			name: "customTerminator",
			records: [][]string{
				{"a", "b"},
				{"c", "d"},
			},
			config: func(w *Writer) {
				w.Terminator = "|"
			},
			want: "a,b|c,d|",
		},
		{
			name: "omitLastTerminator",
			records: [][]string{
				{"a"},
				{"b"},
			},
			config: func(w *Writer) {
				w.Terminator = "\r\n"
				w.OmitLastTerminator = true
			},
			want: "a\r\nb",
		},
		{
			name: "backslashEscape",
			records: [][]string{
				{"say \"hi\"", "c:\\tmp", "plain\\"},
			},
			config: func(w *Writer) {
				w.Escape = '\\'
			},
			want: "\"say \\\"hi\\\"\",c:\\tmp,plain\\\n",
		},
		{
			name: "escapeDoubledInsideQuotes",
			records: [][]string{
				{"a,\\b"},
			},
			config: func(w *Writer) {
				w.Escape = '\\'
			},
			want: "\"a,\\\\b\"\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if tc.config != nil {
				tc.config(w)
			}
			for _, rec := range tc.records {
				require.NoError(t, w.Write(rec))
			}
			require.NoError(t, w.Flush())
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestWriterWriteAll(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)

	records := [][]string{
		{"alpha", "beta"},
		{"gamma", "delta"},
	}

	require.NoError(t, w.WriteAll(records))
	require.NoError(t, w.Flush())
	assert.Equal(t, "alpha,beta\ngamma,delta\n", buf.String())
}

func TestWriterReset(t *testing.T) {
	t.Parallel()

	var buf1 bytes.Buffer
	var buf2 bytes.Buffer

	var w Writer
	w.Reset(&buf1)

	require.NoError(t, w.Write([]string{"a"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "a\n", buf1.String())

	w.Comma = ';'
	w.Terminator = "\r\n"
	w.Reset(&buf2)
	require.NoError(t, w.Write([]string{"x", "y"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "x;y\r\n", buf2.String())
}

func TestWriterResetDropsHeldTerminator(t *testing.T) {
	t.Parallel()

	var buf1 bytes.Buffer
	var buf2 bytes.Buffer

	w := NewWriter(&buf1)
	w.OmitLastTerminator = true
	require.NoError(t, w.Write([]string{"a"}))
	require.NoError(t, w.Flush())

	w.Reset(&buf2)
	require.NoError(t, w.Write([]string{"b"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "a", buf1.String())
	assert.Equal(t, "b", buf2.String())
}

func TestWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()

	records := [][]string{
		{"plain", "with,comma", "with \"quote\""},
		{"multi\nline", "", "back\\slash"},
	}

	for _, escape := range []byte{0, '\\'} {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		w.Escape = escape
		require.NoError(t, w.WriteAll(records))
		require.NoError(t, w.Flush())

		r := NewReader(strings.NewReader(buf.String()))
		r.Escape = escape
		got, err := r.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, records, got, "escape %q", escape)
	}
}

type flushFailWriter struct {
	fail error
}

func (f *flushFailWriter) Write([]byte) (int, error) {
	return 0, f.fail
}

func TestWriterFlushError(t *testing.T) {
	t.Parallel()

	exp := errors.New("flush failed")
	w := NewWriter(&flushFailWriter{fail: exp})

	require.NoError(t, w.Write([]string{"a"}))
	assert.ErrorIs(t, w.Flush(), exp)
	assert.ErrorIs(t, w.Write([]string{"b"}), exp, "Write() should return the stored error")
}

func TestWriterErrorMethod(t *testing.T) {
	t.Parallel()

	w := NewWriter(&strings.Builder{})
	assert.NoError(t, w.Error())

	exp := errors.New("flush failed")
	w.Reset(&flushFailWriter{fail: exp})
	require.NoError(t, w.Write([]string{"a"}))
	assert.ErrorIs(t, w.Flush(), exp)
	assert.ErrorIs(t, w.Error(), exp)
}

func TestNewWriterNilPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewWriter(nil) })
}
