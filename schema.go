package castcsv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/stoewer/go-strcase"
)

// DeclaredType is the semantic type of a record field.
type DeclaredType int

const (
	// TypeCustom is any type without a built-in adapter; it needs a registered one.
	TypeCustom DeclaredType = iota
	TypeString
	TypeBool
	TypeInt
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
)

var declaredTypeNames = [...]string{
	TypeCustom:  "custom",
	TypeString:  "string",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt8:    "int8",
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeUint:    "uint",
	TypeUint8:   "uint8",
	TypeUint16:  "uint16",
	TypeUint32:  "uint32",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
}

func (t DeclaredType) String() string {
	if t < 0 || int(t) >= len(declaredTypeNames) {
		return fmt.Sprintf("DeclaredType(%d)", int(t))
	}
	return declaredTypeNames[t]
}

func declaredTypeOf(rt reflect.Type) DeclaredType {
	switch rt.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBool
	case reflect.Int:
		return TypeInt
	case reflect.Int8:
		return TypeInt8
	case reflect.Int16:
		return TypeInt16
	case reflect.Int32:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint:
		return TypeUint
	case reflect.Uint8:
		return TypeUint8
	case reflect.Uint16:
		return TypeUint16
	case reflect.Uint32:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	default:
		return TypeCustom
	}
}

// FieldDescriptor describes one column-mapped field of a record type.
type FieldDescriptor struct {
	// Name is the column name: the csv tag, or the Go name passed through FieldNaming.
	Name string
	// GoName is the struct field name.
	GoName string
	// Type is the semantic type of the value, pointer indirection removed.
	Type DeclaredType
	// Nullable is set for pointer fields.
	Nullable bool
	// HasDefault is set for fields with a default tag or the optional option; such fields
	// may be missing from the header.
	HasDefault bool
	// Adapter is the custom adapter registered for the field, if any.
	Adapter AdapterRef

	index     []int
	valueType reflect.Type
}

type recordSchema struct {
	name     string
	typ      reflect.Type
	fields   []FieldDescriptor
	defaults bool
}

var setterType = reflect.TypeFor[defaults.Setter]()

// schemaOf derives the field descriptors of the struct type rt. Fields are exported
// struct fields in declaration order, promoted fields of embedded structs included.
func schemaOf(rt reflect.Type, naming func(string) string, adapters map[string]AdapterRef) (*recordSchema, error) {
	if rt == nil {
		return nil, &SchemaError{Type: "<nil>", Err: ErrNotARecord}
	}
	if rt.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: rt.String(), Err: ErrNotARecord, Detail: fmt.Sprintf("%s is not a struct", rt.Kind())}
	}

	s := &recordSchema{
		name:     rt.String(),
		typ:      rt,
		defaults: reflect.PointerTo(rt).Implements(setterType),
	}
	seen := make(map[string]string)
	for _, sf := range reflect.VisibleFields(rt) {
		if !sf.IsExported() || throughPointer(rt, sf.Index) {
			continue
		}
		if sf.Anonymous {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				continue
			}
		}
		tag := sf.Tag.Get("csv")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = naming(sf.Name)
		}
		if prev, dup := seen[name]; dup {
			return nil, &SchemaError{
				Type:   s.name,
				Field:  name,
				Err:    ErrNotARecord,
				Detail: fmt.Sprintf("fields %s and %s share a column name", prev, sf.Name),
			}
		}
		seen[name] = sf.Name

		_, hasDefaultTag := sf.Tag.Lookup("default")
		valueType := sf.Type
		nullable := valueType.Kind() == reflect.Pointer
		if nullable {
			valueType = valueType.Elem()
		}
		s.defaults = s.defaults || hasDefaultTag
		s.fields = append(s.fields, FieldDescriptor{
			Name:       name,
			GoName:     sf.Name,
			Type:       declaredTypeOf(valueType),
			Nullable:   nullable,
			HasDefault: hasDefaultTag || hasOption(opts, "optional"),
			Adapter:    adapters[name],
			index:      sf.Index,
			valueType:  valueType,
		})
	}
	if len(s.fields) == 0 {
		return nil, &SchemaError{Type: s.name, Err: ErrNotARecord, Detail: "no exported fields"}
	}
	return s, nil
}

// throughPointer reports whether reaching the field dereferences an embedded pointer.
func throughPointer(rt reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := rt.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		rt = f.Type
	}
	return false
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if strings.TrimSpace(opt) == want {
			return true
		}
	}
	return false
}

func namingFunc(n FieldNaming) (func(string) string, error) {
	switch n {
	case "", NamingExact:
		return func(s string) string { return s }, nil
	case NamingSnake:
		return strcase.SnakeCase, nil
	case NamingKebab:
		return strcase.KebabCase, nil
	case NamingCamel:
		return strcase.LowerCamelCase, nil
	case NamingPascal:
		return strcase.UpperCamelCase, nil
	default:
		return nil, fmt.Errorf("%w: unknown field naming %q", ErrInvalidConfig, string(n))
	}
}
