package castcsv

import (
	"fmt"
	"reflect"
	"strconv"
)

// TypeAdapter converts between a CSV token and a value of type T.
// A nil pointer stands for "no value" in both directions: Serialize receives nil for a
// null field, and a nil token is written as the configured null code; Deserialize may
// return nil to leave the field without a value.
//
// An adapter is created once per marshalling call and reused for every row, so it must
// not keep row-specific state.
type TypeAdapter[T any] interface {
	Serialize(value *T) (*string, error)
	Deserialize(token string) (*T, error)
}

// AdapterRef refers to a custom TypeAdapter registered for a field with WithFieldAdapter.
// Build one with AdapterOf or UseAdapter.
type AdapterRef interface {
	// ValueType is the T of the referenced TypeAdapter.
	ValueType() reflect.Type

	instantiate() (fieldAdapter, string, error)
}

// AdapterOf refers to an adapter built by factory. The factory runs once per
// marshalling call; an error fails the call with ErrAdapterInstantiation.
func AdapterOf[T any](factory func() (TypeAdapter[T], error)) AdapterRef {
	return adapterRef[T]{factory: factory}
}

// UseAdapter refers to an already constructed adapter, shared by every call.
func UseAdapter[T any](adapter TypeAdapter[T]) AdapterRef {
	return adapterRef[T]{factory: func() (TypeAdapter[T], error) { return adapter, nil }}
}

type adapterRef[T any] struct {
	factory func() (TypeAdapter[T], error)
}

func (r adapterRef[T]) ValueType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (r adapterRef[T]) instantiate() (fieldAdapter, string, error) {
	if r.factory == nil {
		return nil, "", fmt.Errorf("nil factory for %s adapter", r.ValueType())
	}
	a, err := r.factory()
	if err != nil {
		return nil, "", err
	}
	if a == nil {
		return nil, "", fmt.Errorf("factory returned a nil %s adapter", r.ValueType())
	}
	return typedAdapter[T]{adapter: a}, fmt.Sprintf("%T", a), nil
}

// AdapterFunc builds a TypeAdapter from a parse and a format function. Null values are
// never passed to either function.
func AdapterFunc[T any](parse func(string) (T, error), format func(T) (string, error)) TypeAdapter[T] {
	return funcAdapter[T]{parse: parse, format: format}
}

type funcAdapter[T any] struct {
	parse  func(string) (T, error)
	format func(T) (string, error)
}

func (a funcAdapter[T]) Serialize(value *T) (*string, error) {
	if value == nil {
		return nil, nil
	}
	s, err := a.format(*value)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (a funcAdapter[T]) Deserialize(token string) (*T, error) {
	v, err := a.parse(token)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// fieldAdapter is the type-erased form the row codec works with. decode writes into dst,
// which has the field's value type; encode receives the zero reflect.Value for null.
type fieldAdapter interface {
	decode(token string, dst reflect.Value) (bool, error)
	encode(src reflect.Value) (string, bool, error)
}

type typedAdapter[T any] struct {
	adapter TypeAdapter[T]
}

func (a typedAdapter[T]) decode(token string, dst reflect.Value) (bool, error) {
	v, err := a.adapter.Deserialize(token)
	if err != nil || v == nil {
		return false, err
	}
	dst.Set(reflect.ValueOf(v).Elem())
	return true, nil
}

func (a typedAdapter[T]) encode(src reflect.Value) (string, bool, error) {
	var in *T
	if src.IsValid() {
		v := src.Interface().(T)
		in = &v
	}
	out, err := a.adapter.Serialize(in)
	if err != nil || out == nil {
		return "", false, err
	}
	return *out, true, nil
}

type stringAdapter struct{}

func (stringAdapter) decode(token string, dst reflect.Value) (bool, error) {
	dst.SetString(token)
	return true, nil
}

func (stringAdapter) encode(src reflect.Value) (string, bool, error) {
	if !src.IsValid() {
		return "", false, nil
	}
	return src.String(), true, nil
}

type intAdapter struct{ bits int }

func (a intAdapter) decode(token string, dst reflect.Value) (bool, error) {
	n, err := strconv.ParseInt(token, 10, a.bits)
	if err != nil {
		return false, err
	}
	dst.SetInt(n)
	return true, nil
}

func (a intAdapter) encode(src reflect.Value) (string, bool, error) {
	if !src.IsValid() {
		return "", false, nil
	}
	return strconv.FormatInt(src.Int(), 10), true, nil
}

type uintAdapter struct{ bits int }

func (a uintAdapter) decode(token string, dst reflect.Value) (bool, error) {
	n, err := strconv.ParseUint(token, 10, a.bits)
	if err != nil {
		return false, err
	}
	dst.SetUint(n)
	return true, nil
}

func (a uintAdapter) encode(src reflect.Value) (string, bool, error) {
	if !src.IsValid() {
		return "", false, nil
	}
	return strconv.FormatUint(src.Uint(), 10), true, nil
}

type floatAdapter struct{ bits int }

func (a floatAdapter) decode(token string, dst reflect.Value) (bool, error) {
	f, err := strconv.ParseFloat(token, a.bits)
	if err != nil {
		return false, err
	}
	dst.SetFloat(f)
	return true, nil
}

func (a floatAdapter) encode(src reflect.Value) (string, bool, error) {
	if !src.IsValid() {
		return "", false, nil
	}
	return strconv.FormatFloat(src.Float(), 'g', -1, a.bits), true, nil
}

type boolAdapter struct{}

func (boolAdapter) decode(token string, dst reflect.Value) (bool, error) {
	b, err := strconv.ParseBool(token)
	if err != nil {
		return false, err
	}
	dst.SetBool(b)
	return true, nil
}

func (boolAdapter) encode(src reflect.Value) (string, bool, error) {
	if !src.IsValid() {
		return "", false, nil
	}
	return strconv.FormatBool(src.Bool()), true, nil
}

var builtinAdapters = map[DeclaredType]fieldAdapter{
	TypeString:  stringAdapter{},
	TypeBool:    boolAdapter{},
	TypeInt:     intAdapter{bits: strconv.IntSize},
	TypeInt8:    intAdapter{bits: 8},
	TypeInt16:   intAdapter{bits: 16},
	TypeInt32:   intAdapter{bits: 32},
	TypeInt64:   intAdapter{bits: 64},
	TypeUint:    uintAdapter{bits: strconv.IntSize},
	TypeUint8:   uintAdapter{bits: 8},
	TypeUint16:  uintAdapter{bits: 16},
	TypeUint32:  uintAdapter{bits: 32},
	TypeUint64:  uintAdapter{bits: 64},
	TypeFloat32: floatAdapter{bits: 32},
	TypeFloat64: floatAdapter{bits: 64},
}

// resolveAdapter picks the converter of a field: its registered override when present,
// the built-in for its declared type otherwise.
func resolveAdapter(recordType string, f *FieldDescriptor) (fieldAdapter, error) {
	if f.Adapter != nil {
		a, name, err := f.Adapter.instantiate()
		if err != nil {
			return nil, &SchemaError{Type: recordType, Field: f.Name, Err: ErrAdapterInstantiation, Cause: err}
		}
		if f.Adapter.ValueType() != f.valueType {
			return nil, &SchemaError{
				Type:   recordType,
				Field:  f.Name,
				Err:    ErrAdapterTypeMismatch,
				Detail: fmt.Sprintf("adapter %s converts %s, field is %s", name, f.Adapter.ValueType(), f.valueType),
			}
		}
		return a, nil
	}
	if a, ok := builtinAdapters[f.Type]; ok {
		return a, nil
	}
	return nil, &SchemaError{
		Type:   recordType,
		Field:  f.Name,
		Err:    ErrUnsupportedType,
		Detail: fmt.Sprintf("no adapter for %s", f.valueType),
	}
}
