package rewrite

import (
	"fmt"

	"markc/internal/diag"
	"markc/internal/source"
)

// LayoutErrorKind enumerates the reasons a rewrite cannot proceed.
type LayoutErrorKind uint8

const (
	// LayoutErrSpansLines: a value that must stay on one line crosses a line break.
	LayoutErrSpansLines LayoutErrorKind = iota + 1
	LayoutErrNoInsertionPoint
	LayoutErrValueNotFound
	LayoutErrOverlap
	LayoutErrUnterminated
)

// LayoutError aborts rewriting of one file.
type LayoutError struct {
	Kind LayoutErrorKind
	Span source.Span
	Line uint32
	Col  uint32
	Name string // атрибут или элемент
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.message())
}

func (e *LayoutError) message() string {
	switch e.Kind {
	case LayoutErrSpansLines:
		return "attribute " + e.Name + " cannot span a line break"
	case LayoutErrNoInsertionPoint:
		return "no place to insert the connection id of <" + e.Name + ">"
	case LayoutErrValueNotFound:
		return "quoted value of " + e.Name + " not found at its recorded position"
	case LayoutErrOverlap:
		return "edits for " + e.Name + " overlap"
	case LayoutErrUnterminated:
		return "value of " + e.Name + " runs past the end of the document"
	}
	return fmt.Sprintf("layout error kind=%d", e.Kind)
}

// Code maps the error to its diagnostic code.
func (e *LayoutError) Code() diag.Code {
	switch e.Kind {
	case LayoutErrSpansLines:
		return diag.LayAttrSpansLines
	case LayoutErrNoInsertionPoint:
		return diag.LayNoInsertionPoint
	case LayoutErrValueNotFound:
		return diag.LayValueNotFound
	case LayoutErrOverlap:
		return diag.LayOverlappingEdits
	case LayoutErrUnterminated:
		return diag.LayUnterminatedValue
	}
	return diag.UnknownCode
}

// Diagnostic converts the error for reporting.
func (e *LayoutError) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code(), e.Span, e.message())
}
