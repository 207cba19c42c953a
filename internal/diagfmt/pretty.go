package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"earlyret/internal/diag"
	"earlyret/internal/source"
)

type palette struct {
	path, err, warn, info, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:   color.New(color.Bold),
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.path, p.err, p.warn, p.info, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		var file *source.File
		if d.HasSpan && fs != nil {
			file = fs.Get(d.Primary.File)
		}

		var b strings.Builder
		if file != nil {
			start, _ := fs.Resolve(d.Primary)
			b.WriteString(pal.path.Sprintf("%s:%d:%d:", displayPath(file, fs, opts.PathMode), start.Line, start.Col))
			b.WriteString(" ")
		}
		b.WriteString(pal.severity(d.Severity).Sprintf("%s %s", d.Severity, d.Code.ID()))
		b.WriteString(": ")
		msg := d.Message
		if msg == "" {
			msg = d.Code.Title()
		}
		b.WriteString(msg)
		b.WriteString("\n")

		if file != nil {
			writeSnippet(&b, file, fs, d.Primary, int(opts.Context), pal)
		}

		if opts.ShowNotes {
			for _, note := range d.Notes {
				b.WriteString(pal.note.Sprint("  note: "))
				if nf := fs.Get(note.Span.File); nf != nil {
					pos, _ := fs.Resolve(note.Span)
					fmt.Fprintf(&b, "%s:%d:%d: ", displayPath(nf, fs, opts.PathMode), pos.Line, pos.Col)
				}
				b.WriteString(note.Msg)
				b.WriteString("\n")
			}
		}
		_, _ = io.WriteString(w, b.String())
	}
	if n := bag.Dropped(); n > 0 {
		_, _ = fmt.Fprintf(w, "... %d more diagnostic(s) not shown\n", n)
	}
}

func displayPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	return mode.Display(f.Path, fs.BaseDir())
}

// writeSnippet prints the primary line with up to ctx lines around it and
// underlines the span on the primary line.
func writeSnippet(b *strings.Builder, f *source.File, fs *source.FileSet, span source.Span, ctx int, pal palette) {
	start, end := fs.Resolve(span)
	first := int(start.Line) - max(ctx, 0)
	if first < 1 {
		first = 1
	}
	last := min(int(start.Line)+max(ctx, 0), f.LineCount())
	gutterWidth := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := f.Line(ln)
		b.WriteString(pal.gutter.Sprintf("%*d | ", gutterWidth, ln))
		b.WriteString(text)
		b.WriteString("\n")
		if ln != int(start.Line) {
			continue
		}

		col := int(start.Col) - 1
		endCol := len(text)
		if end.Line == start.Line {
			endCol = int(end.Col) - 1
		}
		col = min(max(col, 0), len(text))
		endCol = min(max(endCol, col), len(text))

		b.WriteString(pal.gutter.Sprintf("%*s | ", gutterWidth, ""))
		b.WriteString(padFor(text[:col]))
		width := max(runewidth.StringWidth(text[col:endCol]), 1)
		b.WriteString(pal.caret.Sprint("^" + strings.Repeat("~", width-1)))
		b.WriteString("\n")
	}
}

// padFor returns blanks as wide as prefix, keeping tabs so the caret lines up.
func padFor(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}
