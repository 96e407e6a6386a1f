package section

import (
	"encoding/json"
	"math"
)

// Data is the open attribute bag of a section. Its shape is determined by the
// section type and checked against the type's Schema.
type Data map[string]any

// Clone returns a deep copy; nested maps and slices are never shared.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Data:
		return t.Clone()
	case map[string]any:
		return map[string]any(Data(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []Data:
		out := make([]Data, len(t))
		for i, item := range t {
			out[i] = item.Clone()
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, item := range t {
			out[i] = map[string]any(Data(item).Clone())
		}
		return out
	default:
		return v
	}
}

// Merge returns a copy of d with every key of over applied on top.
func (d Data) Merge(over Data) Data {
	out := d.Clone()
	if out == nil {
		out = Data{}
	}
	for k, v := range over {
		out[k] = cloneValue(v)
	}
	return out
}

func (d Data) String(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

func (d Data) Int(key string) (int, bool) {
	return asInt(d[key])
}

func (d Data) Bool(key string) (bool, bool) {
	b, ok := d[key].(bool)
	return b, ok
}

func (d Data) Strings(key string) ([]string, bool) {
	return asStrings(d[key])
}

func (d Data) Records(key string) ([]Data, bool) {
	return asRecords(d[key])
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func asStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func asRecord(v any) (Data, bool) {
	switch t := v.(type) {
	case Data:
		return t, true
	case map[string]any:
		return Data(t), true
	default:
		return nil, false
	}
}

func asRecords(v any) ([]Data, bool) {
	switch t := v.(type) {
	case []Data:
		return t, true
	case []map[string]any:
		out := make([]Data, len(t))
		for i, item := range t {
			out[i] = Data(item)
		}
		return out, true
	case []any:
		out := make([]Data, 0, len(t))
		for _, item := range t {
			rec, ok := asRecord(item)
			if !ok {
				return nil, false
			}
			out = append(out, rec)
		}
		return out, true
	default:
		return nil, false
	}
}
