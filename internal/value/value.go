// Package value implements the path-aware value tree that documents
// (JSON or YAML) are decoded into before a Guard query walks them. Every
// node remembers the JSON-Pointer-style path that reached it, so
// evaluation failures and reporter events can cite an exact location in
// the source document.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindRegex
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindRegex:
		return "regex"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a single node of the decoded document tree, tagged by Kind
// with exactly one payload field populated, plus the path that reached it.
type Value struct {
	Kind  Kind
	Path  string
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Regex *regexp.Regexp

	// List and Map hold the same Value type recursively; Keys preserves
	// map iteration/insertion order since document maps are ordered data,
	// not just Go maps.
	List []*Value
	Map  map[string]*Value
	Keys []string
}

// escapeToken applies JSON-Pointer (RFC 6901) escaping to one path
// segment: "~" becomes "~0" and "/" becomes "~1".
func escapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}

func childPath(parent, token string) string {
	return parent + "/" + escapeToken(token)
}

// DecodeJSON decodes a JSON document into a path-aware Value tree rooted
// at "". It walks the token stream directly rather than decoding into
// map[string]any first: Go map iteration order is randomized, and the
// spec requires object key order to survive the round trip, so object
// keys are captured in the order the decoder emits them.
func DecodeJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec, "")
	if err != nil {
		return nil, oops.Code("VALUE_ERROR").Wrapf(err, "decoding JSON document")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder, path string) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return valueFromJSONToken(dec, tok, path)
}

func valueFromJSONToken(dec *json.Decoder, tok json.Token, path string) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var list []*Value
			for dec.More() {
				child, err := decodeJSONValue(dec, childPath(path, strconv.Itoa(len(list))))
				if err != nil {
					return nil, err
				}
				list = append(list, child)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return &Value{Kind: KindList, List: list, Path: path}, nil
		case '{':
			keys := []string{}
			m := map[string]*Value{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				child, err := decodeJSONValue(dec, childPath(path, key))
				if err != nil {
					return nil, err
				}
				keys = append(keys, key)
				m[key] = child
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return &Value{Kind: KindMap, Map: m, Keys: keys, Path: path}, nil
		}
		return nil, fmt.Errorf("unexpected JSON delimiter %v", t)
	case nil:
		return &Value{Kind: KindNull, Path: path}, nil
	case bool:
		return &Value{Kind: KindBool, Bool: t, Path: path}, nil
	case json.Number:
		if err := checkFiniteNumber(t); err != nil {
			return nil, err
		}
		return numberValue(string(t), path), nil
	case string:
		return &Value{Kind: KindString, Str: t, Path: path}, nil
	default:
		return &Value{Kind: KindString, Str: fmt.Sprintf("%v", t), Path: path}, nil
	}
}

// checkFiniteNumber rejects NaN/Infinity spellings a permissive decoder
// might otherwise accept, per spec.md §7's ValueError on non-finite
// numeric literals.
func checkFiniteNumber(n json.Number) error {
	switch strings.ToLower(string(n)) {
	case "nan", "inf", "+inf", "-inf", "infinity", "-infinity":
		return fmt.Errorf("non-finite numeric literal %q", n)
	}
	return nil
}

// DecodeYAML decodes a YAML document into a path-aware Value tree rooted
// at "". YAML mapping keys are kept in file order.
func DecodeYAML(data []byte) (*Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, oops.Code("VALUE_ERROR").Wrapf(err, "decoding YAML document")
	}
	if len(node.Content) == 0 {
		return &Value{Kind: KindNull, Path: ""}, nil
	}
	return fromYAMLNode(node.Content[0], "")
}

// Decode tries JSON first (the common case for templates and data files)
// and falls back to YAML, matching how the teacher's manifest loader
// tries the stricter format before the permissive one.
func Decode(data []byte) (*Value, error) {
	if v, err := DecodeJSON(data); err == nil {
		return v, nil
	}
	return DecodeYAML(data)
}

func numberValue(s, path string) *Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &Value{Kind: KindInt, Int: i, Path: path}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return &Value{Kind: KindFloat, Float: f, Path: path}
}

func fromYAMLNode(n *yaml.Node, path string) (*Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Value{Kind: KindNull, Path: path}, nil
		}
		return fromYAMLNode(n.Content[0], path)
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias, path)
	case yaml.ScalarNode:
		return scalarFromYAML(n, path)
	case yaml.SequenceNode:
		list := make([]*Value, len(n.Content))
		for i, c := range n.Content {
			v, err := fromYAMLNode(c, childPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return &Value{Kind: KindList, List: list, Path: path}, nil
	case yaml.MappingNode:
		keys := make([]string, 0, len(n.Content)/2)
		m := make(map[string]*Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			key := keyNode.Value
			v, err := fromYAMLNode(valNode, childPath(path, key))
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
			m[key] = v
		}
		return &Value{Kind: KindMap, Map: m, Keys: keys, Path: path}, nil
	default:
		return &Value{Kind: KindNull, Path: path}, nil
	}
}

func scalarFromYAML(n *yaml.Node, path string) (*Value, error) {
	switch n.Tag {
	case "!!null":
		return &Value{Kind: KindNull, Path: path}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, oops.Code("VALUE_ERROR").Wrapf(err, "decoding bool at %s", path)
		}
		return &Value{Kind: KindBool, Bool: b, Path: path}, nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, oops.Code("VALUE_ERROR").Wrapf(err, "decoding int at %s", path)
		}
		return &Value{Kind: KindInt, Int: i, Path: path}, nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, oops.Code("VALUE_ERROR").Wrapf(err, "decoding float at %s", path)
		}
		return &Value{Kind: KindFloat, Float: f, Path: path}, nil
	default:
		return &Value{Kind: KindString, Str: n.Value, Path: path}, nil
	}
}

// Get returns the child of a map Value by key, or nil if absent or if v
// isn't a map.
func (v *Value) Get(key string) *Value {
	if v == nil || v.Kind != KindMap {
		return nil
	}
	return v.Map[key]
}

// At returns the element of a list Value at index, supporting negative
// indices counted from the end (-1 is the last element).
func (v *Value) At(index int) *Value {
	if v == nil || v.Kind != KindList {
		return nil
	}
	if index < 0 {
		index += len(v.List)
	}
	if index < 0 || index >= len(v.List) {
		return nil
	}
	return v.List[index]
}

// IsScalar reports whether v is a leaf (not List or Map).
func (v *Value) IsScalar() bool {
	return v != nil && v.Kind != KindList && v.Kind != KindMap
}

// Scalar renders a leaf value's content for diagnostics (reporter
// "from:"/"to:" lines, error messages). It is not a serialization
// format — just a short human-readable rendering of one scalar.
func Scalar(v *Value) string {
	if v == nil {
		return "null"
	}
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.Str)
	case KindRegex:
		return "/" + v.Str + "/"
	default:
		return v.Kind.String()
	}
}

// Equal reports deep structural equality, used by the Eq/Ne comparators.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Kind != other.Kind {
		if numericKind(v.Kind) && numericKind(other.Kind) {
			return v.asFloat() == other.asFloat()
		}
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindString:
		return v.Str == other.Str
	case KindRegex:
		return v.Str == other.Str
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Keys) != len(other.Keys) {
			return false
		}
		for _, k := range v.Keys {
			ov, ok := other.Map[k]
			if !ok || !v.Map[k].Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

func numericKind(k Kind) bool { return k == KindInt || k == KindFloat }

func (v *Value) asFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// Compare orders two numeric or string Values for the Lt/Le/Gt/Ge
// comparators. The bool result is false if the values aren't ordered
// relative to each other (different, non-numeric kinds).
func (v *Value) Compare(other *Value) (cmp int, ok bool) {
	if v == nil || other == nil {
		return 0, false
	}
	if numericKind(v.Kind) && numericKind(other.Kind) {
		a, b := v.asFloat(), other.asFloat()
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		default:
			return 0, true
		}
	}
	if v.Kind == KindString && other.Kind == KindString {
		return strings.Compare(v.Str, other.Str), true
	}
	return 0, false
}
