// Package trace records compile spans for markc.
//
// A tracer is carried in the context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(ctx, trace.ScopeFile, "compile:MainPage.xaml")
//	defer span.End("")
//
// Scopes nest from coarse to fine: driver (one CLI command), file (one
// document), pass (parse, bind, validate, rewrite). The level decides how deep
// events are kept.
package trace
