// Package adapters provides castcsv type adapters for common non-scalar types.
//
// Register them per field when creating a codec:
//
//	codec, err := castcsv.New(
//		castcsv.WithFieldAdapter("created", castcsv.UseAdapter(adapters.Time(time.DateOnly))),
//		castcsv.WithFieldAdapter("id", castcsv.UseAdapter(adapters.UUID())),
//	)
//
// Blank tokens deserialize to no value, so the field falls back to its default or null.
package adapters

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oleg578/castcsv"
)

type timeAdapter struct {
	layout string
}

// Time converts time.Time values with the given layout.
func Time(layout string) castcsv.TypeAdapter[time.Time] {
	return timeAdapter{layout: layout}
}

func (a timeAdapter) Serialize(value *time.Time) (*string, error) {
	if value == nil {
		return nil, nil
	}
	s := value.Format(a.layout)
	return &s, nil
}

func (a timeAdapter) Deserialize(token string) (*time.Time, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	t, err := time.Parse(a.layout, token)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type durationAdapter struct{}

// Duration converts time.Duration values in their "1h2m3s" form instead of nanoseconds.
func Duration() castcsv.TypeAdapter[time.Duration] {
	return durationAdapter{}
}

func (durationAdapter) Serialize(value *time.Duration) (*string, error) {
	if value == nil {
		return nil, nil
	}
	s := value.String()
	return &s, nil
}

func (durationAdapter) Deserialize(token string) (*time.Duration, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(token)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type uuidAdapter struct{}

// UUID converts uuid.UUID values in their canonical hyphenated form.
func UUID() castcsv.TypeAdapter[uuid.UUID] {
	return uuidAdapter{}
}

func (uuidAdapter) Serialize(value *uuid.UUID) (*string, error) {
	if value == nil {
		return nil, nil
	}
	s := value.String()
	return &s, nil
}

func (uuidAdapter) Deserialize(token string) (*uuid.UUID, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
