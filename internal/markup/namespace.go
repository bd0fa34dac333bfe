package markup

import "strings"

const (
	// NSPresentation is the default namespace of UI element types.
	NSPresentation = "http://schemas.microsoft.com/winfx/2006/xaml/presentation"
	// NSLanguage is the namespace bound to the x: prefix.
	NSLanguage = "http://schemas.microsoft.com/winfx/2006/xaml"
	// NSCompatibility is the markup-compatibility namespace (mc:Ignorable).
	NSCompatibility = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	NSXML           = "http://www.w3.org/XML/1998/namespace"
)

// IsLocalNamespace reports whether uri names types compiled from the current
// project (using: or clr-namespace: without an assembly qualifier).
func IsLocalNamespace(uri string) bool {
	base, _ := SplitConditional(uri)
	switch {
	case strings.HasPrefix(base, "using:"):
		return true
	case strings.HasPrefix(base, "clr-namespace:"):
		return !strings.Contains(base, ";assembly=")
	}
	return false
}

// CodeNamespace returns the type namespace named by a using:/clr-namespace:
// URI, or "" for other URIs.
func CodeNamespace(uri string) string {
	base, _ := SplitConditional(uri)
	switch {
	case strings.HasPrefix(base, "using:"):
		return strings.TrimPrefix(base, "using:")
	case strings.HasPrefix(base, "clr-namespace:"):
		ns, _, _ := strings.Cut(strings.TrimPrefix(base, "clr-namespace:"), ";")
		return ns
	}
	return ""
}

// Clause is one platform condition of a conditional namespace, such as
// IsApiContractPresent(Windows.Foundation.UniversalApiContract,5).
type Clause struct {
	Text   string
	Offset int // byte offset of Text within the namespace value
	Func   string
	Args   []string
}

// SplitConditional splits "base?Cond(a,b);Cond2(c)" into the base URI and its
// clauses. A URI without '?' has no clauses.
func SplitConditional(uri string) (string, []Clause) {
	base, rest, ok := strings.Cut(uri, "?")
	if !ok {
		return uri, nil
	}
	var clauses []Clause
	off := len(base) + 1
	for _, part := range strings.Split(rest, ";") {
		text := strings.TrimSpace(part)
		if text != "" {
			cl := Clause{Text: text, Offset: off + strings.Index(part, text)}
			if name, args, ok := strings.Cut(text, "("); ok {
				cl.Func = strings.TrimSpace(name)
				args = strings.TrimSuffix(strings.TrimSpace(args), ")")
				for _, a := range strings.Split(args, ",") {
					if a = strings.TrimSpace(a); a != "" {
						cl.Args = append(cl.Args, a)
					}
				}
			} else {
				cl.Func = text
			}
			clauses = append(clauses, cl)
		}
		off += len(part) + 1
	}
	return base, clauses
}

// BaseURI strips platform conditions from uri.
func BaseURI(uri string) string {
	base, _ := SplitConditional(uri)
	return base
}
