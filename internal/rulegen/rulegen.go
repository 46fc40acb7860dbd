// Package rulegen derives a starter Guard rules document from an
// example data file, the way cfn-guard's own rulegen command turns a
// sample template into a rule asserting every literal value it saw.
package rulegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openguard-dsl/guard/internal/value"
)

// Generate renders a single guard rule named ruleName that asserts
// every scalar leaf of root exists and equals the value observed in the
// example document, and that every list/map branch exists.
func Generate(ruleName string, root *value.Value) string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s {\n", ruleName)
	writeAssertions(&b, root, "", 1)
	b.WriteString("}\n")
	return b.String()
}

func writeAssertions(b *strings.Builder, v *value.Value, path string, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind {
	case value.KindMap:
		keys := append([]string{}, v.Keys...)
		sort.Strings(keys)
		for _, k := range keys {
			child := v.Map[k]
			childPath := joinPath(path, k)
			if child.Kind == value.KindMap || child.Kind == value.KindList {
				fmt.Fprintf(b, "%s%s exists\n", indent, childPath)
				writeAssertions(b, child, childPath, depth)
			} else {
				fmt.Fprintf(b, "%s%s == %s\n", indent, childPath, literalText(child))
			}
		}
	case value.KindList:
		fmt.Fprintf(b, "%s%s.* exists\n", indent, path)
	default:
		fmt.Fprintf(b, "%s%s == %s\n", indent, path, literalText(v))
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func literalText(v *value.Value) string {
	switch v.Kind {
	case value.KindString:
		return fmt.Sprintf("%q", v.Str)
	case value.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int)
	case value.KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case value.KindNull:
		return "null"
	default:
		return "null"
	}
}
