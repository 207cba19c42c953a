// Package trace records what the lowering pipeline is doing.
//
// Tracing is off by default. The CLI enables it with
//
//	earlyret lower --trace=- --trace-level=detail src/
//
// Events are spans (begin/end pairs) and points, grouped by scope:
// ScopeDriver for the whole command, ScopePass for parse/extract/splice,
// ScopeFile for per-file work and ScopeToken for each extracted site, scope
// or prologue. The level decides which scopes are written. Events emitted
// while a file is being lowered carry its path, and token or failure points
// carry the byte range they refer to.
//
// Tracer, open span and file travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.StartFileSpan(ctx, "src/a.ts")
//	defer span.End("")
//	trace.Mark(ctx, trace.ScopeToken, "site", &siteSpan, "")
package trace
