// Package diag defines the diagnostic model shared by every compiler phase.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by the
//     path parser, the resolver, the validator and the markup rewriter.
//   - Offer light-weight utilities (Reporter, Bag) so producers can emit
//     diagnostics without coupling to storage or formatting.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: numeric identifier grouped into categories (codes.go). Code.ID
//     yields the stable kind-code such as "RES2001".
//   - Message: short, actionable text.
//   - Primary: source.Span of the offending attribute or path segment.
//   - Notes: optional secondary spans, e.g. "first declared here".
//
// Code ranges follow the pipeline error taxonomy: 1xxx path syntax, 2xxx
// resolution, 3xxx naming scopes, 4xxx validation, 5xxx layout (rewriter),
// 6xxx markup structure, 7xxx I/O, 8xxx project setup, 9xxx observability.
//
// # Emitting diagnostics
//
// Phases receive a Reporter. ReportError and ReportWarning return a
// ReportBuilder that accepts notes before Emit. BagReporter collects into a
// Bag; DedupReporter filters repeats, which matters because a path shared by
// several attributes is resolved once but may be reported from each use.
//
// Rendering lives in internal/diagfmt; the one-line format used by golden tests
// and the --format=short flag lives here (short.go) so tests can use it
// without importing the renderer.
package diag
