package castcsv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotARecord is returned when a type is not a struct with usable fields.
	ErrNotARecord = errors.New("castcsv: not a record type")
	// ErrDuplicateHeader is returned when a header repeats a column name.
	ErrDuplicateHeader = errors.New("castcsv: duplicate header")
	// ErrRequiredFieldMissing is returned when a field without default has no column.
	ErrRequiredFieldMissing = errors.New("castcsv: required field not found in header")
	// ErrUnknownHeaderField is returned when an explicit write header names no field.
	ErrUnknownHeaderField = errors.New("castcsv: no field for header")
	// ErrUnsupportedType is returned when a field type has no built-in and no custom adapter.
	ErrUnsupportedType = errors.New("castcsv: unsupported field type")
	// ErrAdapterInstantiation is returned when a custom adapter factory fails.
	ErrAdapterInstantiation = errors.New("castcsv: cannot create type adapter")
	// ErrAdapterTypeMismatch is returned when a custom adapter converts another type than its field.
	ErrAdapterTypeMismatch = errors.New("castcsv: type adapter not compatible with field")
	// ErrInvalidValue is returned when a token cannot be converted by its field adapter.
	ErrInvalidValue = errors.New("castcsv: invalid value")
	// ErrMissingValue is returned when a required field receives no value on a row.
	ErrMissingValue = errors.New("castcsv: missing value")
)

// SchemaError reports a failure found while resolving a record type against a header,
// before any row is processed.
type SchemaError struct {
	// Type is the record type name.
	Type string
	// Field is the column or field name involved, if any.
	Field string
	// Err is one of the sentinel errors of this package.
	Err error
	// Cause is the underlying failure, if any.
	Cause error
	// Detail carries extra context such as the mismatching types.
	Detail string
}

// Error formats the schema error with the type, field and detail values.
func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Field != "" {
		fmt.Fprintf(&b, " %q", e.Field)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " in %s", e.Type)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the sentinel and the cause so both match errors.Is.
func (e *SchemaError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return nonNil(e.Err, e.Cause)
}

// RowError reports a failure converting a single record.
type RowError struct {
	// Row is the 1-based position of the record among data rows, header excluded.
	Row int
	// Field is the column name of the failing field.
	Field string
	// Err is ErrInvalidValue or ErrMissingValue.
	Err error
	// Cause is the adapter failure behind ErrInvalidValue.
	Cause error
}

// Error formats the row error with the stored field and row values.
func (e *RowError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%v for field %q on row %d", e.Err, e.Field, e.Row)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the sentinel and the cause so both match errors.Is.
func (e *RowError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return nonNil(e.Err, e.Cause)
}

func nonNil(errs ...error) []error {
	out := errs[:0]
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
