package castcsv

import (
	"log/slog"
	"maps"
	"reflect"
	"slices"

	"golang.org/x/text/encoding"
)

// Codec marshals records of any struct type to and from CSV with one configuration.
// A Codec is immutable once created and may be shared between goroutines; the mappings
// and adapter instances it builds belong to a single call.
type Codec struct {
	cfg      Config
	charset  encoding.Encoding
	naming   func(string) string
	adapters map[string]AdapterRef
	logger   *slog.Logger
}

// options holds the settings collected from Option values.
type options struct {
	cfg      Config
	logger   *slog.Logger
	adapters map[string]AdapterRef
}

// Option configures a Codec.
type Option func(*options)

// WithConfig replaces the default configuration. Start from DefaultConfig and change
// the fields you need.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger for the codec. Mapping and row counts are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFieldAdapter registers a custom adapter for every field whose column name is field.
// A registered adapter always wins over the built-in one. A Codec serves many record
// types, so a name that matches no field of the type at hand is not an error; such
// registrations are logged at debug level when a mapping is built.
func WithFieldAdapter(field string, ref AdapterRef) Option {
	return func(o *options) {
		if o.adapters == nil {
			o.adapters = make(map[string]AdapterRef)
		}
		o.adapters[field] = ref
	}
}

// New creates a Codec. It fails with ErrInvalidConfig when the configuration cannot be used.
func New(opts ...Option) (*Codec, error) {
	o := &options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	enc, err := lookupCharset(o.cfg.Charset)
	if err != nil {
		return nil, err
	}
	naming, err := namingFunc(o.cfg.FieldNaming)
	if err != nil {
		return nil, err
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Codec{
		cfg:      o.cfg,
		charset:  enc,
		naming:   naming,
		adapters: maps.Clone(o.adapters),
		logger:   logger,
	}, nil
}

// Config returns the configuration of the codec.
func (c *Codec) Config() Config {
	return c.cfg
}

// Fields describes how records of type T map to columns, in declaration order.
// It fails with ErrNotARecord when T is not a struct with exported fields.
func Fields[T any](c *Codec) ([]FieldDescriptor, error) {
	s, err := c.schema(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return s.fields, nil
}

func (c *Codec) schema(rt reflect.Type) (*recordSchema, error) {
	return schemaOf(rt, c.naming, c.adapters)
}

// unmatchedAdapters returns the sorted names of registered adapters that no field of s uses.
func (c *Codec) unmatchedAdapters(s *recordSchema) []string {
	var names []string
	for name := range c.adapters {
		if !slices.ContainsFunc(s.fields, func(f FieldDescriptor) bool { return f.Name == name }) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (c *Codec) logUnmatchedAdapters(s *recordSchema) {
	if names := c.unmatchedAdapters(s); len(names) > 0 {
		c.logger.Debug("castcsv: adapters registered for unknown fields", "type", s.name, "fields", names)
	}
}
