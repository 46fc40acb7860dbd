package dsl

import (
	"bytes"
	"encoding/json"
	"reflect"

	"gopkg.in/yaml.v3"
)

// ordered is implemented by every AST node that participates in the
// parse-tree serialization (spec'd key order, externally-tagged unions).
// Location metadata is deliberately never part of fields(): the
// round-trip invariant holds modulo position.
type ordered interface {
	fields() []kv
}

type kv struct {
	key string
	val any
}

// flag marks a discriminator bool whose "false" is the absence of a
// variant, so it's omitted entirely rather than written as false — unlike
// a plain bool (e.g. Clause.Negation), which is meaningful content either
// way and always appears.
type flag bool

// ToJSON renders a RulesFile as the ordered parse-tree JSON document.
func ToJSON(rf *RulesFile) ([]byte, error) {
	return marshalOrdered(rf)
}

// ToYAML renders a RulesFile as the ordered parse-tree YAML document.
// YAML is a superset of JSON, so the ordered JSON bytes are re-parsed
// into a yaml.Node (which preserves mapping order as written) and
// re-emitted in block style — one ordering implementation serves both
// formats.
func ToYAML(rf *RulesFile) ([]byte, error) {
	js, err := ToJSON(rf)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(js, &node); err != nil {
		return nil, err
	}
	return yaml.Marshal(&node)
}

func marshalOrdered(o ordered) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range o.fields() {
		enc, ok := encodeVal(f.val)
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeVal(v any) ([]byte, bool) {
	if v == nil {
		return nil, false
	}
	if o, ok := v.(ordered); ok {
		rv := reflect.ValueOf(o)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil, false
		}
		b, err := marshalOrdered(o)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	switch t := v.(type) {
	case flag:
		if !t {
			return nil, false
		}
		// A flag marks a unit variant (AllValues, AllIndices, Null): per
		// spec.md §6 a unit variant serializes as `{"Foo": null}`, not
		// `{"Foo": true}` — there is no payload to carry, so the tag's
		// value is the JSON null, same as every other unit variant.
		return []byte("null"), true
	case string:
		if t == "" {
			return nil, false
		}
		b, _ := json.Marshal(t)
		return b, true
	case *string:
		if t == nil {
			return nil, false
		}
		b, _ := json.Marshal(*t)
		return b, true
	case bool:
		b, _ := json.Marshal(t)
		return b, true
	case *bool:
		if t == nil {
			return nil, false
		}
		b, _ := json.Marshal(*t)
		return b, true
	case int:
		b, _ := json.Marshal(t)
		return b, true
	case *int:
		if t == nil {
			return nil, false
		}
		b, _ := json.Marshal(*t)
		return b, true
	case *int64:
		if t == nil {
			return nil, false
		}
		b, _ := json.Marshal(*t)
		return b, true
	case *float64:
		if t == nil {
			return nil, false
		}
		b, _ := json.Marshal(*t)
		return b, true
	case []string:
		if len(t) == 0 {
			return nil, false
		}
		b, _ := json.Marshal(t)
		return b, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		if rv.Len() == 0 {
			return nil, false
		}
		var buf bytes.Buffer
		buf.WriteByte('[')
		wrote := 0
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			b, ok := encodeVal(elem)
			if !ok {
				continue
			}
			if wrote > 0 {
				buf.WriteByte(',')
			}
			buf.Write(b)
			wrote++
		}
		buf.WriteByte(']')
		if wrote == 0 {
			return nil, false
		}
		return buf.Bytes(), true
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return b, true
}

func orderedSlice[T ordered](items []T) []ordered {
	out := make([]ordered, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}
