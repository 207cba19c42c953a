// Package diag defines the error taxonomy shared by the rewrite pipeline.
//
// Every failure the pipeline can surface is a Diagnostic with a stable Code:
//
//   - SYN: the external parser rejected the source (fatal, nothing partial is returned).
//   - CFG: a lowering configuration is invalid, e.g. an unknown modifier kind.
//     Invalid values are never silently defaulted.
//   - ENC: spliced output is not valid text or edits overlap. These indicate a
//     defect in extraction and must be surfaced rather than papered over.
//   - IO: reading inputs or writing results failed (driver and CLI only).
//
// Diagnostics travel through ordinary error returns wrapped in *Error. Callers
// classify with errors.Is against the Err* sentinels or with CodeOf. Empty input
// and sources without any operator are normal outcomes, not diagnostics.
//
// Package diag does no formatting or IO; rendering lives in internal/diagfmt.
package diag
