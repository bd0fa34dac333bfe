package platform

import (
	"fmt"
	"strconv"
	"strings"
)

// ClauseError describes a malformed condition of a conditional namespace.
// Offset and Len locate the condition within the namespace URI.
type ClauseError struct {
	Offset int
	Len    int
	Reason string
}

func (e *ClauseError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Reason)
}

// CheckConditional returns the first malformed condition of uri, or nil. A URI
// without '?' has nothing to check.
func CheckConditional(uri string) *ClauseError {
	base, rest, ok := strings.Cut(uri, "?")
	if !ok {
		return nil
	}
	if strings.TrimSpace(rest) == "" {
		return &ClauseError{Offset: len(base), Len: 1, Reason: "no conditions after '?'"}
	}
	off := len(base) + 1
	for _, part := range strings.Split(rest, ";") {
		text := strings.TrimSpace(part)
		at := off + strings.Index(part, text)
		if text == "" {
			return &ClauseError{Offset: off, Len: len(part), Reason: "empty condition"}
		}
		if reason := checkClause(text); reason != "" {
			return &ClauseError{Offset: at, Len: len(text), Reason: reason}
		}
		off += len(part) + 1
	}
	return nil
}

func checkClause(text string) string {
	name, args, ok := strings.Cut(text, "(")
	if !ok || !strings.HasSuffix(args, ")") {
		return fmt.Sprintf("condition %q must have the form Name(arguments)", text)
	}
	name = strings.TrimSpace(name)
	inner := strings.TrimSuffix(args, ")")
	if strings.ContainsAny(inner, "()") {
		return fmt.Sprintf("unbalanced parentheses in %q", text)
	}
	var list []string
	if strings.TrimSpace(inner) != "" {
		for _, a := range strings.Split(inner, ",") {
			a = strings.TrimSpace(a)
			if a == "" {
				return fmt.Sprintf("empty argument in %q", text)
			}
			list = append(list, a)
		}
	}
	switch name {
	case "IsApiContractPresent", "IsApiContractNotPresent":
		if len(list) < 1 || len(list) > 2 {
			return fmt.Sprintf("%s takes a contract name and an optional version, got %d argument(s)", name, len(list))
		}
		if len(list) == 2 {
			if v, err := strconv.ParseUint(list[1], 10, 16); err != nil || v == 0 {
				return fmt.Sprintf("%s: version %q is not a positive integer", name, list[1])
			}
		}
	case "IsTypePresent", "IsTypeNotPresent":
		if len(list) != 1 {
			return fmt.Sprintf("%s takes one type name, got %d argument(s)", name, len(list))
		}
	default:
		return fmt.Sprintf("unknown condition %s", name)
	}
	return ""
}
