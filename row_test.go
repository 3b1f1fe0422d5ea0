package castcsv

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullables struct {
	N    *int     `csv:"n"`
	S    *string  `csv:"s"`
	Text string   `csv:"text"`
	F    *float32 `csv:"f"`
}

type defaulted struct {
	A     int     `csv:"a"`
	B     int     `csv:"b" default:"-1"`
	Label *string `csv:"label" default:"none"`
}

func decodeWith[T any](t *testing.T, header, tokens []string, nullCode string) (T, error) {
	t.Helper()
	var rec T
	s := schemaFor[T](t, NamingExact)
	m, err := buildReadMapping(s, header)
	require.NoError(t, err)
	err = m.decodeRow(tokens, nullCode, 3, reflect.ValueOf(&rec).Elem())
	return rec, err
}

func encodeWith[T any](t *testing.T, rec T, header []string, nullCode string) ([]string, error) {
	t.Helper()
	s := schemaFor[T](t, NamingExact)
	m, err := buildWriteMapping(s, header)
	require.NoError(t, err)
	return m.encodeRow(reflect.ValueOf(rec), nullCode, 5, nil)
}

func TestDecodeRowNullConvention(t *testing.T) {
	t.Parallel()

	header := []string{"n", "s", "text", "f"}

	rec, err := decodeWith[nullables](t, header, []string{"", "", "", ""}, "")
	require.NoError(t, err)
	assert.Nil(t, rec.N, "empty token is null for a nullable int")
	assert.Nil(t, rec.S, "empty token is null for a nullable string")
	assert.Equal(t, "", rec.Text, "empty token is the empty string for a plain string")
	assert.Nil(t, rec.F)

	rec, err = decodeWith[nullables](t, header, []string{"7", "x", "y", "0.5"}, "")
	require.NoError(t, err)
	require.NotNil(t, rec.N)
	assert.Equal(t, 7, *rec.N)
	require.NotNil(t, rec.S)
	assert.Equal(t, "x", *rec.S)
	assert.Equal(t, "y", rec.Text)
	require.NotNil(t, rec.F)
	assert.Equal(t, float32(0.5), *rec.F)
}

func TestDecodeRowCustomNullCode(t *testing.T) {
	t.Parallel()

	header := []string{"n", "s", "text", "f"}

	rec, err := decodeWith[nullables](t, header, []string{"notset", "notset", "", "notset"}, "notset")
	require.NoError(t, err)
	assert.Nil(t, rec.N)
	assert.Nil(t, rec.S)
	assert.Equal(t, "", rec.Text, "empty token is a value when it is not the null code")
	assert.Nil(t, rec.F)

	_, err = decodeWith[nullables](t, header, []string{"", "", "x", ""}, "notset")
	require.ErrorIs(t, err, ErrInvalidValue, "empty int token is parsed when it is not the null code")
	var rerr *RowError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "n", rerr.Field)

	_, err = decodeWith[nullables](t, header, []string{"1", "x", "notset", "1"}, "notset")
	require.ErrorIs(t, err, ErrMissingValue, "null code for a plain string is no value")
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "text", rerr.Field)
	assert.Equal(t, 3, rerr.Row)
}

func TestDecodeRowTruncated(t *testing.T) {
	t.Parallel()

	type floats struct {
		A *float32 `csv:"a"`
		B *float32 `csv:"b"`
		C *float32 `csv:"c"`
		D *float32 `csv:"d"`
	}
	header := []string{"a", "b", "c", "d"}

	rec, err := decodeWith[floats](t, header, []string{"1", ""}, "")
	require.NoError(t, err)
	require.NotNil(t, rec.A)
	assert.Equal(t, float32(1), *rec.A)
	assert.Nil(t, rec.B)
	assert.Nil(t, rec.C)
	assert.Nil(t, rec.D)

	type required struct {
		A *float32 `csv:"a"`
		D float32  `csv:"d"`
	}
	_, err = decodeWith[required](t, []string{"a", "d"}, []string{""}, "")
	require.ErrorIs(t, err, ErrMissingValue)
	var rerr *RowError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "d", rerr.Field)
}

func TestDecodeRowInvalidValue(t *testing.T) {
	t.Parallel()

	type record struct {
		A  float64  `csv:"a"`
		AN *float64 `csv:"an"`
	}
	type partial struct {
		A  float64  `csv:"a,optional"`
		AN *float64 `csv:"an,optional"`
	}

	for _, header := range [][]string{{"a"}, {"an"}} {
		_, err := decodeWith[partial](t, header, []string{"sunk"}, "")
		require.ErrorIs(t, err, ErrInvalidValue, header[0])
		assert.ErrorIs(t, err, strconv.ErrSyntax, "the parse failure stays reachable")

		var rerr *RowError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, header[0], rerr.Field)
		assert.Equal(t, 3, rerr.Row)
	}

	_, err := decodeWith[record](t, []string{"a", "an"}, []string{"1", "x"}, "")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestDecodeRowDefaults(t *testing.T) {
	t.Parallel()

	rec, err := decodeWith[defaulted](t, []string{"a"}, []string{"1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.A)
	assert.Equal(t, -1, rec.B)
	require.NotNil(t, rec.Label)
	assert.Equal(t, "none", *rec.Label)

	rec, err = decodeWith[defaulted](t, []string{"a", "b", "label"}, []string{"1", "", ""}, "")
	require.NoError(t, err)
	assert.Equal(t, -1, rec.B, "no value keeps the default")
	require.NotNil(t, rec.Label)
	assert.Equal(t, "none", *rec.Label, "null keeps the default of a nullable field")

	rec, err = decodeWith[defaulted](t, []string{"a", "b", "label"}, []string{"1", "2", "x"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.B)
	assert.Equal(t, "x", *rec.Label)
}

func TestDecodeRowSetter(t *testing.T) {
	t.Parallel()

	rec, err := decodeWith[settable](t, []string{"A"}, []string{"4"}, "")
	require.NoError(t, err)
	assert.Equal(t, settable{A: 4, B: 99}, rec)

	rec, err = decodeWith[settable](t, []string{"A", "B"}, []string{"4", "5"}, "")
	require.NoError(t, err)
	assert.Equal(t, settable{A: 4, B: 5}, rec)
}

func TestDecodeRowCustomAdapterNoValue(t *testing.T) {
	t.Parallel()

	type record struct {
		N int `csv:"n" default:"12"`
	}
	optional := AdapterOf(func() (TypeAdapter[int], error) { return noneAdapter{}, nil })
	s, err := schemaOf(reflect.TypeFor[record](), func(s string) string { return s }, map[string]AdapterRef{"n": optional})
	require.NoError(t, err)
	m, err := buildReadMapping(s, []string{"n"})
	require.NoError(t, err)

	var rec record
	require.NoError(t, m.decodeRow([]string{"anything"}, "", 1, reflect.ValueOf(&rec).Elem()))
	assert.Equal(t, 12, rec.N, "an adapter returning no value leaves the default")
}

// noneAdapter never produces a value.
type noneAdapter struct{}

func (noneAdapter) Serialize(*int) (*string, error) { return nil, nil }
func (noneAdapter) Deserialize(string) (*int, error) { return nil, nil }

func TestEncodeRow(t *testing.T) {
	t.Parallel()

	n := 42
	s := "x"
	rec := nullables{N: &n, S: &s, Text: "a,b"}

	tokens, err := encodeWith(t, rec, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "x", "a,b", ""}, tokens)

	tokens, err = encodeWith(t, nullables{}, []string{"f", "n"}, "notset")
	require.NoError(t, err)
	assert.Equal(t, []string{"notset", "notset"}, tokens)
}

func TestEncodeRowAdapterFailure(t *testing.T) {
	t.Parallel()

	type record struct {
		N int `csv:"n"`
	}
	failing := UseAdapter(AdapterFunc(strconv.Atoi, func(int) (string, error) { return "", strconv.ErrRange }))
	sch, err := schemaOf(reflect.TypeFor[record](), func(s string) string { return s }, map[string]AdapterRef{"n": failing})
	require.NoError(t, err)
	m, err := buildWriteMapping(sch, nil)
	require.NoError(t, err)

	_, err = m.encodeRow(reflect.ValueOf(record{N: 1}), "", 5, nil)
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.ErrorIs(t, err, strconv.ErrRange)
	var rerr *RowError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 5, rerr.Row)
	assert.Equal(t, "n", rerr.Field)
}

func TestEncodeRowReusesBuffer(t *testing.T) {
	t.Parallel()

	sch := schemaFor[triple](t, NamingExact)
	m, err := buildWriteMapping(sch, nil)
	require.NoError(t, err)

	buf := make([]string, 0, 8)
	tokens, err := m.encodeRow(reflect.ValueOf(triple{A: "a", B: 1, C: true}), "", 1, buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "true"}, tokens)
	assert.Same(t, &buf[:1][0], &tokens[0])
}

func TestIsNullToken(t *testing.T) {
	t.Parallel()

	str := &FieldDescriptor{Type: TypeString}
	nullableStr := &FieldDescriptor{Type: TypeString, Nullable: true}
	num := &FieldDescriptor{Type: TypeInt}

	assert.False(t, isNullToken("", "", str))
	assert.True(t, isNullToken("", "", nullableStr))
	assert.True(t, isNullToken("", "", num))
	assert.True(t, isNullToken("-", "-", str))
	assert.False(t, isNullToken("", "-", num))
	assert.False(t, isNullToken("x", "", nullableStr))
}
