package castcsv

// column binds a field to its converter and, on the read side, to its position in a row.
type column struct {
	field   *FieldDescriptor
	index   int
	adapter fieldAdapter
}

type readMapping struct {
	schema  *recordSchema
	header  []string
	columns []column
}

type writeMapping struct {
	schema  *recordSchema
	header  []string
	columns []column
}

// buildReadMapping matches the fields of s to the columns of header by name. Fields
// absent from the header are dropped when they have a default and rejected otherwise.
// Adapters are resolved here, once per call.
func buildReadMapping(s *recordSchema, header []string) (*readMapping, error) {
	if name, ok := findDuplicate(header); ok {
		return nil, &SchemaError{Type: s.name, Field: name, Err: ErrDuplicateHeader}
	}
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[name] = i
	}

	m := &readMapping{schema: s, header: header}
	for i := range s.fields {
		f := &s.fields[i]
		idx, ok := positions[f.Name]
		if !ok {
			if f.HasDefault {
				continue
			}
			return nil, &SchemaError{Type: s.name, Field: f.Name, Err: ErrRequiredFieldMissing}
		}
		adapter, err := resolveAdapter(s.name, f)
		if err != nil {
			return nil, err
		}
		m.columns = append(m.columns, column{field: f, index: idx, adapter: adapter})
	}
	return m, nil
}

// buildWriteMapping lays out the output columns: the explicit header order when one is
// given, the field declaration order otherwise.
func buildWriteMapping(s *recordSchema, header []string) (*writeMapping, error) {
	m := &writeMapping{schema: s}
	if len(header) > 0 {
		byName := make(map[string]*FieldDescriptor, len(s.fields))
		for i := range s.fields {
			byName[s.fields[i].Name] = &s.fields[i]
		}
		for _, name := range header {
			f, ok := byName[name]
			if !ok {
				return nil, &SchemaError{Type: s.name, Field: name, Err: ErrUnknownHeaderField}
			}
			m.columns = append(m.columns, column{field: f, index: len(m.columns)})
		}
	} else {
		for i := range s.fields {
			m.columns = append(m.columns, column{field: &s.fields[i], index: i})
		}
	}

	m.header = make([]string, len(m.columns))
	for i, col := range m.columns {
		m.header[i] = col.field.Name
	}
	if name, ok := findDuplicate(m.header); ok {
		return nil, &SchemaError{Type: s.name, Field: name, Err: ErrDuplicateHeader}
	}

	for i := range m.columns {
		adapter, err := resolveAdapter(s.name, m.columns[i].field)
		if err != nil {
			return nil, err
		}
		m.columns[i].adapter = adapter
	}
	return m, nil
}

func findDuplicate(names []string) (string, bool) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			return name, true
		}
		seen[name] = struct{}{}
	}
	return "", false
}
