package validate

import "markc/internal/schema"

// widening lists the implicit numeric conversions generated code may apply.
var widening = map[string][]string{
	"System.Byte":   {"System.Int32", "System.Int64", "System.UInt32", "System.Single", "System.Double"},
	"System.Int32":  {"System.Int64", "System.Single", "System.Double"},
	"System.UInt32": {"System.Int64", "System.Single", "System.Double"},
	"System.Int64":  {"System.Single", "System.Double"},
	"System.Single": {"System.Double"},
	"System.Char":   {"System.Int32", "System.Int64", "System.String"},
}

// convertible reports whether a value of type from can populate to. Besides
// assignment, primitives and enums convert to String and numbers widen.
func convertible(from, to *schema.Type) bool {
	if from == nil || to == nil {
		return true
	}
	if schema.Assignable(from, to) {
		return true
	}
	if to.FullName() == "System.String" && (from.Kind == schema.KindPrimitive || from.Kind == schema.KindEnum) {
		return true
	}
	for _, w := range widening[from.FullName()] {
		if w == to.FullName() {
			return true
		}
	}
	return false
}
