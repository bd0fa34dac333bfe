package pathexpr

import (
	"strings"

	"markc/internal/diag"
)

type ExtensionKind uint8

const (
	// ExtCompiled is {x:Bind ...}: resolved at compile time.
	ExtCompiled ExtensionKind = iota
	// ExtBind is the unprefixed {Bind ...} spelling of the same extension.
	ExtBind
)

type Mode uint8

const (
	ModeDefault Mode = iota
	ModeOneTime
	ModeOneWay
	ModeTwoWay
)

func (m Mode) String() string {
	switch m {
	case ModeOneTime:
		return "OneTime"
	case ModeOneWay:
		return "OneWay"
	case ModeTwoWay:
		return "TwoWay"
	}
	return "Default"
}

// Option is one Key=Value pair of an extension.
type Option struct {
	Value  string
	Offset int // byte offset of Value in the attribute value
}

// Extension is a parsed {x:Bind ...} markup extension.
type Extension struct {
	Kind ExtensionKind
	Path string
	// PathOffset is the byte offset of Path in the attribute value.
	PathOffset int
	Mode       Mode
	Options    map[string]Option
}

var knownOptions = map[string]bool{
	"Path":                true,
	"Mode":                true,
	"BindBack":            true,
	"FallbackValue":       true,
	"TargetNullValue":     true,
	"Converter":           true,
	"ConverterParameter":  true,
	"ConverterLanguage":   true,
	"UpdateSourceTrigger": true,
}

// ParseExtension recognises a binding extension in an attribute value.
// ok is false when value is not a binding extension at all (plain text,
// {}-escaped text, or another extension such as {StaticResource}); err is
// set when value is a binding extension but malformed.
func ParseExtension(value string) (ext *Extension, ok bool, err error) {
	s, e := trimBounds(value)
	if e-s < 2 || value[s] != '{' || strings.HasPrefix(value[s:], "{}") {
		return nil, false, nil
	}
	nameStart := s + 1
	i := nameStart
	for i < e && !isSpaceByte(value[i]) && value[i] != '}' && value[i] != ',' {
		i++
	}
	var kind ExtensionKind
	switch value[nameStart:i] {
	case "x:Bind":
		kind = ExtCompiled
	case "Bind":
		kind = ExtBind
	default:
		return nil, false, nil
	}
	if value[e-1] != '}' {
		return nil, true, &ParseError{Code: diag.PathBadExtension, Text: value[s:e], Offset: s, Reason: "missing closing '}'"}
	}

	ext = &Extension{Kind: kind, Options: make(map[string]Option)}
	body := value[:e-1]
	pathSeen := false
	for _, part := range splitTopLevel(body, i) {
		ps, pe := trimBounds(value[part[0]:part[1]])
		from, to := part[0]+ps, part[0]+pe
		if from == to {
			if part[0] == i && len(splitTopLevel(body, i)) == 1 {
				// {x:Bind}: путь пустой
				break
			}
			return nil, true, &ParseError{Code: diag.PathBadExtension, Text: value[part[0]:part[1]], Offset: part[0], Reason: "empty extension argument"}
		}
		text := value[from:to]
		key, val, hasEq := cutOption(text)
		if !hasEq {
			if pathSeen {
				return nil, true, &ParseError{Code: diag.PathBadExtension, Text: text, Offset: from, Reason: "more than one positional argument"}
			}
			pathSeen = true
			ext.Path, ext.PathOffset = text, from
			continue
		}
		key = strings.TrimSpace(key)
		if !knownOptions[key] {
			return nil, true, &ParseError{Code: diag.PathBadExtension, Text: key, Offset: from, Reason: "unknown option"}
		}
		if _, dup := ext.Options[key]; dup || (key == "Path" && pathSeen) {
			return nil, true, &ParseError{Code: diag.PathBadExtension, Text: key, Offset: from, Reason: "option set more than once"}
		}
		vs, ve := trimBounds(val)
		valOff := from + len(text) - len(val) + vs
		opt := Option{Value: val[vs:ve], Offset: valOff}
		if key == "Path" {
			pathSeen = true
			ext.Path, ext.PathOffset = opt.Value, opt.Offset
			continue
		}
		ext.Options[key] = opt
	}
	if !pathSeen {
		ext.PathOffset = i
	}
	if m, ok := ext.Options["Mode"]; ok {
		switch m.Value {
		case "OneTime":
			ext.Mode = ModeOneTime
		case "OneWay":
			ext.Mode = ModeOneWay
		case "TwoWay":
			ext.Mode = ModeTwoWay
		default:
			return nil, true, &ParseError{Code: diag.PathBadExtension, Text: m.Value, Offset: m.Offset, Reason: "unknown binding mode"}
		}
	}
	return ext, true, nil
}

// cutOption splits Key=Value when '=' appears before any bracket or quote.
func cutOption(text string) (key, val string, ok bool) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '=':
			return text[:i], text[i+1:], true
		case '(', '[', '\'', '"', '{':
			return "", "", false
		}
	}
	return "", "", false
}

// splitTopLevel returns [from, to) ranges of s[start:] separated by commas
// outside of brackets, braces and quotes.
func splitTopLevel(s string, start int) [][2]int {
	var out [][2]int
	depth := 0
	var quote byte
	from := start
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			out = append(out, [2]int{from, i})
			from = i + 1
		}
	}
	return append(out, [2]int{from, len(s)})
}
