package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

var validate = validator.New()

// FieldSpec describes one field of a payload schema
type FieldSpec struct {
	Name     string
	Type     types.FieldType
	Required bool
	// Default is applied when the field is absent. nil means no default.
	Default any
	// Rules is a go-playground/validator tag checked against the decoded value
	Rules string
}

// Schema is an explicit payload description evaluated by Decode
type Schema struct {
	Name   string
	Fields []FieldSpec
}

// FieldError is a validation failure of a single field
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors is the list of field validation failures of a payload
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Messages groups messages by field name
func (e FieldErrors) Messages() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// Values holds decoded payload fields keyed by field name
type Values map[string]any

// Has reports whether the field was provided or defaulted
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Int(name string) int64 {
	i, _ := v[name].(int64)
	return i
}

func (v Values) Time(name string) time.Time {
	t, _ := v[name].(time.Time)
	return t
}

func (v Values) Object(name string) map[string]any {
	m, _ := v[name].(map[string]any)
	return m
}

// Decode validates input against the schema. Required fields must be present, absent fields
// receive their default and unknown fields are ignored.
func (s *Schema) Decode(input map[string]any) (Values, FieldErrors) {
	return s.decode(input, false)
}

// DecodePartial validates only the fields present in input. Neither required checks nor
// defaults apply.
func (s *Schema) DecodePartial(input map[string]any) (Values, FieldErrors) {
	return s.decode(input, true)
}

// Field returns the spec of the named field
func (s *Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// WithDefault returns a copy of the schema with the default of one field replaced
func (s *Schema) WithDefault(name string, def any) *Schema {
	fields := make([]FieldSpec, len(s.Fields))
	copy(fields, s.Fields)
	for i := range fields {
		if fields[i].Name == name {
			fields[i].Default = def
		}
	}
	return &Schema{Name: s.Name, Fields: fields}
}

func (s *Schema) decode(input map[string]any, partial bool) (Values, FieldErrors) {
	values := make(Values, len(s.Fields))
	var errs FieldErrors

	for _, spec := range s.Fields {
		raw, ok := input[spec.Name]
		if !ok || raw == nil {
			if partial {
				continue
			}
			if spec.Required {
				errs = append(errs, FieldError{Field: spec.Name, Message: "Missing data for required field."})
				continue
			}
			if spec.Default != nil {
				values[spec.Name] = spec.Default
			}
			continue
		}

		v, err := convertField(spec.Type, raw)
		if err != nil {
			errs = append(errs, FieldError{Field: spec.Name, Message: err.Error()})
			continue
		}

		if spec.Rules != "" {
			if err := validate.Var(v, spec.Rules); err != nil {
				errs = append(errs, FieldError{Field: spec.Name, Message: ruleMessage(err)})
				continue
			}
		}

		values[spec.Name] = v
	}

	if len(errs) > 0 {
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return nil, errs
	}
	return values, nil
}

func convertField(ft types.FieldType, raw any) (any, error) {
	switch ft {
	case types.FieldTypeText:
		s, ok := raw.(string)
		if !ok {
			return nil, ErrNotString
		}
		return s, nil

	case types.FieldTypeInteger:
		return toInt64(raw)

	case types.FieldTypeTime:
		switch t := raw.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			parsed, err := parseTime(t)
			if err != nil {
				return nil, ErrNotTime
			}
			return parsed, nil
		default:
			return nil, ErrNotTime
		}

	case types.FieldTypeObject:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, ErrNotObject
		}
		return maps.Clone(m), nil

	default:
		return nil, fmt.Errorf("unsupported field type: %s", ft)
	}
}

func toInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, ErrNotInteger
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, ErrNotInteger
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		return i, nil
	default:
		return 0, ErrNotInteger
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseTime parses the timestamp forms accepted in payloads and query strings
func ParseTime(s string) (time.Time, error) {
	return parseTime(s)
}

func ruleMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "min":
			return fmt.Sprintf("Shorter than minimum length %s.", fe.Param())
		case "max":
			return fmt.Sprintf("Longer than maximum length %s.", fe.Param())
		case "gt":
			return fmt.Sprintf("Must be greater than %s.", fe.Param())
		default:
			return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
		}
	}
	return err.Error()
}
