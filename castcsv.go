// # CastCSV: Typed CSV Marshalling on a Streaming Tokenizer
//
// CastCSV reads CSV rows straight into Go structs and writes structs back out as CSV.
// Underneath sits a high-throughput streaming reader and buffered writer that adhere to
// RFC 4180, keep allocations low for large inputs, and expose precise error information
// for malformed data.
//
// # Features
//
// - Name-based column mapping computed once per header, with duplicate-header and
// missing-field diagnostics reported before any row is decoded.
// - Built-in converters for strings, signed and unsigned integers, floats and booleans;
// per-field custom converters through the generic `TypeAdapter` interface.
// - Pointer fields are nullable, `default:"..."` tags and the `optional` option make a
// column optional, and a configurable null code represents absent values.
// - Lazy decoding through `iter.Seq2`, push-based encoding through `Encoder`.
// - Streaming CSV reader with custom field, quote and escape characters, empty-line and
// mismatched-row skipping, and structured `ParseError` values.
// - Buffered CSV writer with configurable delimiters, line terminators and forced quoting.
//
// # Getting Started
//
//	type Person struct {
//		Name string `csv:"name"`
//		Age  *int   `csv:"age"`
//	}
//
//	codec, err := castcsv.New()
//	people, err := castcsv.DecodeAll[Person](codec, file, nil)
//	err = castcsv.EncodeAll(codec, os.Stdout, people, nil)
package castcsv
