package castcsv

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a Config cannot drive the reader or writer.
var ErrInvalidConfig = errors.New("castcsv: invalid config")

// Char is a single-byte configuration character. Its text form is the character itself,
// or one of the names "tab", "space", "comma", "semicolon", "pipe".
type Char byte

var charNames = map[string]Char{
	"tab":       '\t',
	"space":     ' ',
	"comma":     ',',
	"semicolon": ';',
	"pipe":      '|',
	`\t`:        '\t',
}

// MarshalText renders the character, using its name for whitespace.
func (c Char) MarshalText() ([]byte, error) {
	switch c {
	case '\t':
		return []byte("tab"), nil
	case ' ':
		return []byte("space"), nil
	}
	return []byte{byte(c)}, nil
}

// UnmarshalText accepts a single byte or a known name.
func (c *Char) UnmarshalText(text []byte) error {
	if named, ok := charNames[strings.ToLower(string(text))]; ok {
		*c = named
		return nil
	}
	if len(text) != 1 {
		return fmt.Errorf("%w: character %q must be a single byte", ErrInvalidConfig, text)
	}
	*c = Char(text[0])
	return nil
}

// QuoteMode selects which fields the writer quotes.
type QuoteMode int

const (
	// QuoteMinimal quotes only fields containing the delimiter, the quote, or a line break.
	QuoteMinimal QuoteMode = iota
	// QuoteAll quotes every field.
	QuoteAll
)

// String returns the text form of the mode.
func (m QuoteMode) String() string {
	switch m {
	case QuoteMinimal:
		return "minimal"
	case QuoteAll:
		return "all"
	default:
		return fmt.Sprintf("QuoteMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m QuoteMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *QuoteMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "minimal", "canonical", "":
		*m = QuoteMinimal
	case "all":
		*m = QuoteAll
	default:
		return fmt.Errorf("%w: unknown quote mode %q", ErrInvalidConfig, text)
	}
	return nil
}

// FieldNaming derives a column name from a Go field name when no csv tag is present.
type FieldNaming string

const (
	NamingExact  FieldNaming = "exact"
	NamingSnake  FieldNaming = "snake"
	NamingKebab  FieldNaming = "kebab"
	NamingCamel  FieldNaming = "camel"
	NamingPascal FieldNaming = "pascal"
)

// Config holds the reader and writer settings of a Codec. Every field can be set
// independently; DefaultConfig returns the defaults.
type Config struct {
	// Charset of the byte stream, as an IANA name.
	Charset string `yaml:"charset" env:"CASTCSV_CHARSET"`
	// QuoteChar encloses fields.
	QuoteChar Char `yaml:"quote_char" env:"CASTCSV_QUOTE_CHAR"`
	// Delimiter separates fields.
	Delimiter Char `yaml:"delimiter" env:"CASTCSV_DELIMITER"`
	// EscapeChar escapes quotes inside quoted fields. Zero or QuoteChar means quotes are
	// doubled. The default double quote follows a changed QuoteChar.
	EscapeChar Char `yaml:"escape_char" env:"CASTCSV_ESCAPE_CHAR"`
	// SkipEmptyLine skips blank lines when reading, fails otherwise.
	SkipEmptyLine bool `yaml:"skip_empty_line" env:"CASTCSV_SKIP_EMPTY_LINE"`
	// SkipMismatchedRow skips rows of a different width when reading, fails otherwise.
	// The expected width is that of the first data row, not the header: when the first
	// data row is truncated, every later full-width row is skipped.
	SkipMismatchedRow bool `yaml:"skip_mismatched_row" env:"CASTCSV_SKIP_MISMATCHED_ROW"`
	// NullCode is the token standing for a null value.
	NullCode string `yaml:"null_code" env:"CASTCSV_NULL_CODE"`
	// LineTerminator ends every written row.
	LineTerminator string `yaml:"line_terminator" env:"CASTCSV_LINE_TERMINATOR"`
	// OutputLastLineTerminator writes a terminator after the last row.
	OutputLastLineTerminator bool `yaml:"output_last_line_terminator" env:"CASTCSV_OUTPUT_LAST_LINE_TERMINATOR"`
	// QuoteWriteMode selects which fields get quoted when writing.
	QuoteWriteMode QuoteMode `yaml:"quote_write_mode" env:"CASTCSV_QUOTE_WRITE_MODE"`
	// FieldNaming derives column names for fields without a csv tag.
	FieldNaming FieldNaming `yaml:"field_naming" env:"CASTCSV_FIELD_NAMING"`
}

// DefaultConfig returns UTF-8, comma separated, double-quoted CSV with CRLF line endings.
func DefaultConfig() Config {
	return Config{
		Charset:                  "UTF-8",
		QuoteChar:                '"',
		Delimiter:                ',',
		EscapeChar:               '"',
		NullCode:                 "",
		LineTerminator:           "\r\n",
		OutputLastLineTerminator: true,
		QuoteWriteMode:           QuoteMinimal,
		FieldNaming:              NamingExact,
	}
}

// Validate reports settings the tokenizer cannot work with.
func (c Config) Validate() error {
	special := func(b Char) bool { return b == 0 || b == '\r' || b == '\n' }
	switch {
	case special(c.Delimiter):
		return fmt.Errorf("%w: delimiter %q", ErrInvalidConfig, byte(c.Delimiter))
	case special(c.QuoteChar):
		return fmt.Errorf("%w: quote character %q", ErrInvalidConfig, byte(c.QuoteChar))
	case c.EscapeChar != 0 && special(c.EscapeChar):
		return fmt.Errorf("%w: escape character %q", ErrInvalidConfig, byte(c.EscapeChar))
	case c.Delimiter == c.QuoteChar:
		return fmt.Errorf("%w: delimiter and quote character are both %q", ErrInvalidConfig, byte(c.Delimiter))
	case c.Delimiter == Char(c.escape()):
		return fmt.Errorf("%w: delimiter and escape character are both %q", ErrInvalidConfig, byte(c.Delimiter))
	case c.LineTerminator == "":
		return fmt.Errorf("%w: empty line terminator", ErrInvalidConfig)
	case c.QuoteWriteMode != QuoteMinimal && c.QuoteWriteMode != QuoteAll:
		return fmt.Errorf("%w: quote mode %s", ErrInvalidConfig, c.QuoteWriteMode)
	}
	if _, err := namingFunc(c.FieldNaming); err != nil {
		return err
	}
	if _, err := lookupCharset(c.Charset); err != nil {
		return err
	}
	return nil
}

// LoadConfigYAML reads a YAML document on top of DefaultConfig. Unknown keys are rejected.
func LoadConfigYAML(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("invalid yaml config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFromEnv applies CASTCSV_* environment variables on top of DefaultConfig.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// escape returns the effective escape byte.
func (c Config) escape() byte {
	if c.EscapeChar == 0 || (c.EscapeChar == '"' && c.QuoteChar != '"') {
		return byte(c.QuoteChar)
	}
	return byte(c.EscapeChar)
}

func (c Config) reader(src io.Reader) *Reader {
	r := NewReader(src)
	r.Comma = byte(c.Delimiter)
	r.Quote = byte(c.QuoteChar)
	r.Escape = c.escape()
	r.SkipEmptyLines = c.SkipEmptyLine
	r.SkipMismatched = c.SkipMismatchedRow
	return r
}

func (c Config) writer(dst io.Writer) *Writer {
	w := NewWriter(dst)
	w.Comma = byte(c.Delimiter)
	w.Quote = byte(c.QuoteChar)
	w.Escape = c.escape()
	w.Terminator = c.LineTerminator
	w.AlwaysQuote = c.QuoteWriteMode == QuoteAll
	w.OmitLastTerminator = !c.OutputLastLineTerminator
	return w
}
