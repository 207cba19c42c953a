package diag

import (
	"errors"
	"fmt"

	"earlyret/internal/source"
)

// Error carries a Diagnostic through Go error returns.
type Error struct {
	Diagnostic
	Err error
}

// Sentinels for errors.Is classification; only the Code is compared.
var (
	ErrParseFailure        = &Error{Diagnostic: Diagnostic{Code: SynParseFailure}}
	ErrInvalidModifierKind = &Error{Diagnostic: Diagnostic{Code: CfgInvalidModifierKind}}
	ErrInvalidConfig       = &Error{Diagnostic: Diagnostic{Code: CfgInvalidValue}}
	ErrEncodingFailure     = &Error{Diagnostic: Diagnostic{Code: EncInvalidUTF8}}
	ErrOverlappingEdits    = &Error{Diagnostic: Diagnostic{Code: EncOverlappingEdits}}
)

// Errorf builds an error-severity diagnostic without a source location.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Diagnostic: Diagnostic{
		Severity: SevError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}}
}

// ErrorAt builds an error-severity diagnostic pointing at span.
func ErrorAt(code Code, span source.Span, format string, args ...any) *Error {
	e := Errorf(code, format, args...)
	e.Primary = span
	e.HasSpan = true
	return e
}

// Wrap attaches a cause to the diagnostic and returns it.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// WithNote appends a secondary span.
func (e *Error) WithNote(span source.Span, msg string) *Error {
	e.Notes = append(e.Notes, Note{Span: span, Msg: msg})
	return e
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.Title()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code.ID(), msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code.ID(), msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// CodeOf extracts the diagnostic code carried by err.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return UnknownCode, false
}

// AsDiagnostic converts any error into a Diagnostic, using UnknownCode for plain errors.
func AsDiagnostic(err error) Diagnostic {
	var de *Error
	if errors.As(err, &de) {
		d := de.Diagnostic
		if d.Message == "" {
			d.Message = d.Code.Title()
		}
		if de.Err != nil {
			d.Message = fmt.Sprintf("%s: %v", d.Message, de.Err)
		}
		return d
	}
	return Diagnostic{Severity: SevError, Code: UnknownCode, Message: err.Error()}
}
