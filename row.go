package castcsv

import (
	"reflect"

	"github.com/creasty/defaults"
)

// decodeRow fills dst, an addressable record value, from one row of tokens.
// row is the 1-based data row number used in errors.
func (m *readMapping) decodeRow(tokens []string, nullCode string, row int, dst reflect.Value) error {
	if m.schema.defaults {
		if err := defaults.Set(dst.Addr().Interface()); err != nil {
			return &RowError{Row: row, Err: ErrInvalidValue, Cause: err}
		}
	}

	for _, col := range m.columns {
		f := col.field
		present := col.index < len(tokens)
		var token string
		if present {
			token = tokens[col.index]
		}

		ok := false
		value := reflect.New(f.valueType).Elem()
		if present && !isNullToken(token, nullCode, f) {
			var err error
			ok, err = col.adapter.decode(token, value)
			if err != nil {
				return &RowError{Row: row, Field: f.Name, Err: ErrInvalidValue, Cause: err}
			}
		}

		target := dst.FieldByIndex(f.index)
		switch {
		case ok && f.Nullable:
			target.Set(value.Addr())
		case ok:
			target.Set(value)
		case f.HasDefault:
			// keep the default
		case f.Nullable:
			target.SetZero()
		default:
			return &RowError{Row: row, Field: f.Name, Err: ErrMissingValue}
		}
	}
	return nil
}

// isNullToken reports whether token stands for "no value" for field f. With an empty null
// code, an empty token still reaches the adapter of a non-nullable string field.
func isNullToken(token, nullCode string, f *FieldDescriptor) bool {
	if token != nullCode {
		return false
	}
	return f.Nullable || nullCode != "" || f.Type != TypeString
}

// encodeRow renders src, a record value, as one row of tokens appended to dst[:0].
func (m *writeMapping) encodeRow(src reflect.Value, nullCode string, row int, dst []string) ([]string, error) {
	dst = dst[:0]
	for _, col := range m.columns {
		f := col.field
		value := src.FieldByIndex(f.index)
		if f.Nullable {
			if value.IsNil() {
				value = reflect.Value{}
			} else {
				value = value.Elem()
			}
		}
		token, ok, err := col.adapter.encode(value)
		if err != nil {
			return nil, &RowError{Row: row, Field: f.Name, Err: ErrInvalidValue, Cause: err}
		}
		if !ok {
			token = nullCode
		}
		dst = append(dst, token)
	}
	return dst, nil
}
