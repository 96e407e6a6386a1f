package section

import (
	"fmt"
	"slices"
	"sort"
)

// Kind is the value kind of a schema field.
type Kind string

const (
	KindString     Kind = "string"
	KindInteger    Kind = "integer"
	KindBool       Kind = "bool"
	KindEnum       Kind = "enum"
	KindStringList Kind = "list-of-string"
	KindRecordList Kind = "list-of-record"
)

// Field describes one recognized key of a section's data bag.
type Field struct {
	Key      string   `json:"key"`
	Kind     Kind     `json:"kind"`
	Label    string   `json:"label,omitempty"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Fields   []Field  `json:"fields,omitempty"`
	Common   bool     `json:"common,omitempty"`
}

// Schema is the set of recognized keys of one section type.
type Schema struct {
	Type   string  `json:"type"`
	Fields []Field `json:"fields"`

	check func(Data) []string
}

// Field looks up a field by key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Validate returns the sorted, de-duplicated keys of data that violate the
// schema: required keys that are missing, values of the wrong kind, enum values
// outside their options, and list-consistency failures. Unrecognized keys are
// allowed. Nested record keys are reported as "list[i].key".
func (s Schema) Validate(d Data) []string {
	seen := map[string]struct{}{}
	add := func(k string) { seen[k] = struct{}{} }
	for _, f := range s.Fields {
		v, present := d[f.Key]
		if !present || v == nil {
			if f.Required {
				add(f.Key)
			}
			continue
		}
		for _, bad := range checkValue(f, f.Key, v) {
			add(bad)
		}
	}
	if s.check != nil && len(seen) == 0 {
		for _, bad := range s.check(d) {
			add(bad)
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func checkValue(f Field, path string, v any) []string {
	switch f.Kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return []string{path}
		}
	case KindInteger:
		if _, ok := asInt(v); !ok {
			return []string{path}
		}
	case KindBool:
		if _, ok := v.(bool); !ok {
			return []string{path}
		}
	case KindEnum:
		s, ok := v.(string)
		if !ok || !slices.Contains(f.Options, s) {
			return []string{path}
		}
	case KindStringList:
		if _, ok := asStrings(v); !ok {
			return []string{path}
		}
	case KindRecordList:
		recs, ok := asRecords(v)
		if !ok {
			return []string{path}
		}
		var bad []string
		for i, rec := range recs {
			for _, sub := range f.Fields {
				subPath := fmt.Sprintf("%s[%d].%s", path, i, sub.Key)
				sv, present := rec[sub.Key]
				if !present || sv == nil {
					if sub.Required {
						bad = append(bad, subPath)
					}
					continue
				}
				bad = append(bad, checkValue(sub, subPath, sv)...)
			}
		}
		return bad
	}
	return nil
}

// JSONSchema renders the schema as a JSON Schema object. Additional keys are
// permitted so documents written by newer registries still validate.
func (s Schema) JSONSchema() map[string]any {
	out := objectSchema(s.Fields)
	out["$schema"] = "http://json-schema.org/draft-07/schema#"
	if s.Type != "" {
		out["title"] = s.Type
	}
	return out
}

func objectSchema(fields []Field) map[string]any {
	props := map[string]any{}
	required := []string{}
	for _, f := range fields {
		props[f.Key] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Key)
		}
	}
	out := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	var out map[string]any
	switch f.Kind {
	case KindString:
		out = map[string]any{"type": "string"}
	case KindInteger:
		out = map[string]any{"type": "integer"}
	case KindBool:
		out = map[string]any{"type": "boolean"}
	case KindEnum:
		opts := make([]any, len(f.Options))
		for i, o := range f.Options {
			opts[i] = o
		}
		out = map[string]any{"type": "string", "enum": opts}
	case KindStringList:
		out = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	case KindRecordList:
		out = map[string]any{"type": "array", "items": objectSchema(f.Fields)}
	default:
		out = map[string]any{}
	}
	if f.Label != "" {
		out["description"] = f.Label
	}
	return out
}
