package castcsv

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// lookupCharset resolves an IANA charset name. UTF-8 resolves to a nil encoding,
// which means the bytes are used as is apart from a leading byte order mark.
func lookupCharset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: charset %q: %v", ErrInvalidConfig, name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: charset %q is not supported", ErrInvalidConfig, name)
	}
	return enc, nil
}

func decodeCharset(src io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		// A leading BOM is dropped; without one the bytes pass through untouched.
		return transform.NewReader(src, unicode.BOMOverride(transform.Nop))
	}
	return transform.NewReader(src, enc.NewDecoder())
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// encodeCharset wraps dst; Close flushes the transformer but never closes dst.
func encodeCharset(dst io.Writer, enc encoding.Encoding) io.WriteCloser {
	if enc == nil {
		return nopWriteCloser{dst}
	}
	return transform.NewWriter(dst, enc.NewEncoder())
}
