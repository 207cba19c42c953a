package diagfmt

import (
	"encoding/json"
	"io"

	"earlyret/internal/diag"
	"earlyret/internal/source"
)

// LocationJSON is a span in machine form. Line and column fields, plus the
// text of the first line, are only filled when positions are requested.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
	Line      string `json:"line,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput is the document written by JSON. Dropped counts the
// findings the bag refused past its limit; Max cuts only what is printed.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Dropped     int              `json:"dropped,omitempty"`
}

// locator turns spans into LocationJSON for one output.
type locator struct {
	fs        *source.FileSet
	mode      PathMode
	positions bool
}

func (l locator) at(span source.Span) LocationJSON {
	loc := LocationJSON{StartByte: span.Start, EndByte: span.End}
	f := l.fs.Get(span.File)
	if f == nil {
		return loc
	}
	loc.File = displayPath(f, l.fs, l.mode)
	if !l.positions {
		return loc
	}
	start, end := l.fs.Resolve(span)
	loc.StartLine, loc.StartCol = start.Line, start.Col
	loc.EndLine, loc.EndCol = end.Line, end.Col
	loc.Line = f.Line(int(start.Line))
	return loc
}

func (l locator) ptr(span source.Span) *LocationJSON {
	loc := l.at(span)
	return &loc
}

func (l locator) diagnostic(d *diag.Diagnostic, notes bool) DiagnosticJSON {
	out := DiagnosticJSON{Severity: d.Severity.String(), Code: d.Code.ID(), Message: d.Message}
	if l.fs == nil {
		return out
	}
	if d.HasSpan {
		out.Location = l.ptr(d.Primary)
	}
	if notes {
		for _, n := range d.Notes {
			out.Notes = append(out.Notes, NoteJSON{Message: n.Msg, Location: l.at(n.Span)})
		}
	}
	return out
}

// BuildDiagnosticsOutput builds the JSON document without encoding it.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	l := locator{fs: fs, mode: opts.PathMode, positions: opts.IncludePositions}
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, len(items)), Dropped: bag.Dropped()}
	for i := range items {
		out.Diagnostics[i] = l.diagnostic(&items[i], opts.IncludeNotes)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes the diagnostics as one indented document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
