package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Разбор путей привязки (ParseError)
	PathInfo             Code = 1000
	PathUnexpectedChar   Code = 1001
	PathUnclosedParen    Code = 1002
	PathUnmatchedParen   Code = 1003
	PathUnclosedBracket  Code = 1004
	PathUnmatchedBracket Code = 1005
	PathEmptySegment     Code = 1006
	PathTooManyDots      Code = 1007
	PathBadExtension     Code = 1008

	// Разрешение типов и членов (ResolutionError)
	ResInfo               Code = 2000
	ResUnknownMember      Code = 2001
	ResUnknownType        Code = 2002
	ResNoOverload         Code = 2003
	ResNotAttachable      Code = 2004
	ResNotIndexable       Code = 2005
	ResUnresolvedLocal    Code = 2006
	ResInconsistentPass   Code = 2007
	ResTypeMismatch       Code = 2008
	ResReadOnlySource     Code = 2009
	ResUnknownTarget      Code = 2010
	ResUnknownPrefix      Code = 2011
	ResMethodWithoutCall  Code = 2012
	ResSafeNavigation     Code = 2013
	ResMissingCodeBehind  Code = 2014
	ResMissingDataType    Code = 2015
	ResStaticNotSupported Code = 2016

	// Области видимости (ScopeError)
	ScopeInfo            Code = 3000
	ScopeDuplicateName   Code = 3001
	ScopeOutOfScope      Code = 3002
	ScopeAliasRedeclared Code = 3003
	ScopeAliasConflict   Code = 3004
	ScopeEmptyIdentifier Code = 3005
	ScopeBadIdentifier   Code = 3006

	// Семантическая валидация
	ValInfo                  Code = 4000
	ValEmptyNestedPath       Code = 4001
	ValDeferredMissingName   Code = 4002
	ValDeferredConflict      Code = 4003
	ValDeferredIllegalParent Code = 4004
	ValEventNoCandidate      Code = 4005
	ValEventAmbiguous        Code = 4006
	ValEventSignature        Code = 4007
	ValTwoWayNotObservable   Code = 4008
	ValPhaseOutsideTemplate  Code = 4009
	ValPhaseInvalid          Code = 4010
	ValBindOnNonMember       Code = 4011
	ValBadConditionalNS      Code = 4012
	ValDeferredNotUIElement  Code = 4013
	ValBadConnectionID       Code = 4014
	ValDuplicateConnectionID Code = 4015

	// Переписывание разметки (LayoutError)
	LayInfo              Code = 5000
	LayAttrSpansLines    Code = 5001
	LayNoInsertionPoint  Code = 5002
	LayValueNotFound     Code = 5003
	LayOverlappingEdits  Code = 5004
	LayUnterminatedValue Code = 5005

	// Структура разметки
	MkpInfo           Code = 6000
	MkpSyntax         Code = 6001
	MkpUnclosedTag    Code = 6002
	MkpMismatchedTag  Code = 6003
	MkpUnknownPrefix  Code = 6004
	MkpDuplicateAttr  Code = 6005
	MkpNoRootElement  Code = 6006
	MkpUnterminated   Code = 6007
	MkpUnknownElement Code = 6008

	IOInfo          Code = 7000
	IOLoadFileError Code = 7001
	IOWriteError    Code = 7002

	ProjInfo          Code = 8000
	ProjBadManifest   Code = 8001
	ProjBadCatalog    Code = 8002
	ProjMissingSchema Code = 8003

	ObsInfo    Code = 9000
	ObsTimings Code = 9001
)

var (
	codeDescription = map[Code]string{
		UnknownCode: "Unknown error",

		PathInfo:             "Binding path information",
		PathUnexpectedChar:   "Unexpected character in binding path",
		PathUnclosedParen:    "Unclosed parenthesis in binding path",
		PathUnmatchedParen:   "Unmatched closing parenthesis in binding path",
		PathUnclosedBracket:  "Unclosed indexer bracket in binding path",
		PathUnmatchedBracket: "Unmatched closing bracket in binding path",
		PathEmptySegment:     "Empty segment in binding path",
		PathTooManyDots:      "More than one '.' inside a parenthetical group",
		PathBadExtension:     "Malformed binding markup extension",

		ResInfo:               "Resolution information",
		ResUnknownMember:      "Unknown member",
		ResUnknownType:        "Unknown type",
		ResNoOverload:         "No method overload matches the arguments",
		ResNotAttachable:      "Member is not attachable",
		ResNotIndexable:       "Value is not indexable",
		ResUnresolvedLocal:    "Local type member could not be resolved",
		ResInconsistentPass:   "Binding path resolved differently between passes",
		ResTypeMismatch:       "Binding source type is not assignable to the target",
		ResReadOnlySource:     "Two-way binding source is read-only",
		ResUnknownTarget:      "Binding target member not found on element",
		ResUnknownPrefix:      "Unknown namespace prefix in binding path",
		ResMethodWithoutCall:  "Method referenced without invocation",
		ResSafeNavigation:     "Path through a deferred element is null-guarded",
		ResMissingCodeBehind:  "Binding used without a generated backing type",
		ResMissingDataType:    "Template binding requires a data type",
		ResStaticNotSupported: "Static root cannot be used here",

		ScopeInfo:            "Scope information",
		ScopeDuplicateName:   "Duplicate identifier in naming scope",
		ScopeOutOfScope:      "Named element is not visible from this scope",
		ScopeAliasRedeclared: "Identifier alias declared more than once",
		ScopeAliasConflict:   "Identifier and alias disagree",
		ScopeEmptyIdentifier: "Identifier must not be empty",
		ScopeBadIdentifier:   "Identifier is not a valid name",

		ValInfo:                  "Validation information",
		ValEmptyNestedPath:       "Empty binding path used as a call parameter",
		ValDeferredMissingName:   "Deferred load marker requires an identifier",
		ValDeferredConflict:      "Deferred load markers conflict",
		ValDeferredIllegalParent: "Deferred load marker is not allowed here",
		ValEventNoCandidate:      "No handler overload matches the event",
		ValEventAmbiguous:        "More than one handler overload matches the event",
		ValEventSignature:        "Handler signature does not match the event",
		ValTwoWayNotObservable:   "Two-way binding target is not observable",
		ValPhaseOutsideTemplate:  "Phase marker outside of a template",
		ValPhaseInvalid:          "Phase marker must be a non-negative integer",
		ValBindOnNonMember:       "Binding placed on a non-member attribute",
		ValBadConditionalNS:      "Malformed conditional namespace",
		ValDeferredNotUIElement:  "Deferred load marker requires a UIElement or FlyoutBase",
		ValBadConnectionID:       "Connection identifier must be a positive integer",
		ValDuplicateConnectionID: "Connection identifier used twice",

		LayInfo:              "Layout information",
		LayAttrSpansLines:    "Attribute cannot span a line break",
		LayNoInsertionPoint:  "No insertion point for connection identifier",
		LayValueNotFound:     "Attribute value not found at recorded position",
		LayOverlappingEdits:  "Rewrite edits overlap",
		LayUnterminatedValue: "Attribute value has no closing quote",

		MkpInfo:           "Markup information",
		MkpSyntax:         "Markup syntax error",
		MkpUnclosedTag:    "Unclosed element",
		MkpMismatchedTag:  "Mismatched closing tag",
		MkpUnknownPrefix:  "Unknown namespace prefix",
		MkpDuplicateAttr:  "Duplicate attribute",
		MkpNoRootElement:  "Document has no root element",
		MkpUnterminated:   "Unterminated markup construct",
		MkpUnknownElement: "Unknown element type",

		IOInfo:          "I/O information",
		IOLoadFileError: "I/O load file error",
		IOWriteError:    "I/O write error",

		ProjInfo:          "Project information",
		ProjBadManifest:   "Invalid project manifest",
		ProjBadCatalog:    "Invalid type catalog",
		ProjMissingSchema: "Project has no type catalog",

		ObsInfo:    "Observability information",
		ObsTimings: "Pipeline timings",
	}
)

// Category groups codes into the error taxonomy used by the pipeline.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryParse
	CategoryResolution
	CategoryScope
	CategoryValidation
	CategoryLayout
	CategoryMarkup
	CategoryIO
	CategoryProject
	CategoryObservability
)

func (c Code) Category() Category {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return CategoryParse
	case ic >= 2000 && ic < 3000:
		return CategoryResolution
	case ic >= 3000 && ic < 4000:
		return CategoryScope
	case ic >= 4000 && ic < 5000:
		return CategoryValidation
	case ic >= 5000 && ic < 6000:
		return CategoryLayout
	case ic >= 6000 && ic < 7000:
		return CategoryMarkup
	case ic >= 7000 && ic < 8000:
		return CategoryIO
	case ic >= 8000 && ic < 9000:
		return CategoryProject
	case ic >= 9000 && ic < 10000:
		return CategoryObservability
	}
	return CategoryUnknown
}

var categoryPrefix = [...]string{
	CategoryUnknown:       "E",
	CategoryParse:         "PTH",
	CategoryResolution:    "RES",
	CategoryScope:         "SCP",
	CategoryValidation:    "VAL",
	CategoryLayout:        "LAY",
	CategoryMarkup:        "MKP",
	CategoryIO:            "IO",
	CategoryProject:       "PRJ",
	CategoryObservability: "OBS",
}

// ID returns the stable kind-code, e.g. "RES2001".
func (c Code) ID() string {
	return fmt.Sprintf("%s%04d", categoryPrefix[c.Category()], int(c))
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
