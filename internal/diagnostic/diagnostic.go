// Package diagnostic provides positioned error reporting for the shader
// compiler.
//
// Every compile failure is fatal: the pipeline stops at the first error and
// reports it with its file, line, column and a caret under the source line.
package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error aborts compilation.
	Error Severity = iota
	// Warning is a non-blocking issue.
	Warning
	// Note provides additional context for another diagnostic.
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Position represents a position in source code.
type Position struct {
	Offset int // Byte offset (0-based)
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// Range represents a range in source code.
type Range struct {
	Start Position
	End   Position
}

// RelatedInfo provides additional location information for a diagnostic.
type RelatedInfo struct {
	Range   Range
	Message string
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     DiagnosticCode
	Message  string
	File     string
	Range    Range
	Related  []RelatedInfo
}

// Error returns a formatted error string.
func (d *Diagnostic) Error() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
}

// Positioned is implemented by errors that carry a source offset and code,
// such as parser and validator errors.
type Positioned interface {
	error
	Offset() int
	DiagnosticCode() DiagnosticCode
}

// FromError converts a positioned error into a Diagnostic for file.
// It returns false when err carries no position.
func FromError(err error, file, source string) (*Diagnostic, bool) {
	var pe Positioned
	if !errors.As(err, &pe) {
		return nil, false
	}
	dl := NewDiagnosticList(file, source)
	return &Diagnostic{
		Severity: Error,
		Code:     pe.DiagnosticCode(),
		Message:  messageOf(pe),
		File:     file,
		Range:    dl.MakeRange(pe.Offset(), pe.Offset()+1),
	}, true
}

func messageOf(pe Positioned) string {
	if m, ok := pe.(interface{ Msg() string }); ok {
		return m.Msg()
	}
	return pe.Error()
}

// DiagnosticList collects diagnostics during compilation.
type DiagnosticList struct {
	diagnostics []Diagnostic
	lineIndex   *LineIndex
	file        string
	hasErrors   bool
}

// NewDiagnosticList creates a new diagnostic list for the given source.
func NewDiagnosticList(file, source string) *DiagnosticList {
	return &DiagnosticList{
		lineIndex: NewLineIndex(source),
		file:      file,
	}
}

// Add adds a diagnostic to the list.
func (dl *DiagnosticList) Add(d Diagnostic) {
	if d.File == "" {
		d.File = dl.file
	}
	dl.diagnostics = append(dl.diagnostics, d)
	if d.Severity == Error {
		dl.hasErrors = true
	}
}

// AddErrorWithCode adds an error diagnostic with an error code.
func (dl *DiagnosticList) AddErrorWithCode(offset int, code DiagnosticCode, message string) {
	dl.Add(Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  message,
		Range:    dl.MakeRange(offset, offset+1),
	})
}

// AddWarning adds a warning diagnostic at the given byte offset.
func (dl *DiagnosticList) AddWarning(offset int, message string) {
	dl.Add(Diagnostic{
		Severity: Warning,
		Message:  message,
		Range:    dl.MakeRange(offset, offset+1),
	})
}

// MakePosition converts a byte offset to a Position.
func (dl *DiagnosticList) MakePosition(offset int) Position {
	return dl.lineIndex.Position(offset)
}

// MakeRange converts byte offsets to a Range.
func (dl *DiagnosticList) MakeRange(start, end int) Range {
	return Range{
		Start: dl.MakePosition(start),
		End:   dl.MakePosition(end),
	}
}

// HasErrors returns true if there are any error-level diagnostics.
func (dl *DiagnosticList) HasErrors() bool {
	return dl.hasErrors
}

// Diagnostics returns all collected diagnostics.
func (dl *DiagnosticList) Diagnostics() []Diagnostic {
	return dl.diagnostics
}

// Errors returns only error-level diagnostics.
func (dl *DiagnosticList) Errors() []Diagnostic {
	var errs []Diagnostic
	for _, d := range dl.diagnostics {
		if d.Severity == Error {
			errs = append(errs, d)
		}
	}
	return errs
}

// Err returns the first error as an error value, or nil.
func (dl *DiagnosticList) Err() error {
	for i := range dl.diagnostics {
		if dl.diagnostics[i].Severity == Error {
			return &dl.diagnostics[i]
		}
	}
	return nil
}

// Format formats all diagnostics as a human-readable string.
func (dl *DiagnosticList) Format() string {
	var sb strings.Builder
	for i := range dl.diagnostics {
		sb.WriteString(dl.FormatDiagnostic(&dl.diagnostics[i]))
	}
	return sb.String()
}

// FormatDiagnostic formats a single diagnostic with source context.
func (dl *DiagnosticList) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder

	sb.WriteString(d.Error())
	if d.Code != "" {
		fmt.Fprintf(&sb, " [%s]", d.Code)
	}
	sb.WriteByte('\n')

	if sourceLine := dl.lineIndex.Line(d.Range.Start.Line); sourceLine != "" {
		fmt.Fprintf(&sb, "    %s\n", sourceLine)
		caret := strings.Repeat(" ", d.Range.Start.Column-1+4) + "^"
		if d.Range.End.Line == d.Range.Start.Line && d.Range.End.Column > d.Range.Start.Column+1 {
			caret += strings.Repeat("~", d.Range.End.Column-d.Range.Start.Column-1)
		}
		sb.WriteString(caret)
		sb.WriteByte('\n')
	}

	for _, rel := range d.Related {
		fmt.Fprintf(&sb, "  %d:%d: note: %s\n", rel.Range.Start.Line, rel.Range.Start.Column, rel.Message)
	}

	return sb.String()
}

// DiagnosticCode defines standard error codes.
type DiagnosticCode string

const (
	// Lexical errors (E00xx)
	CodeInvalidToken DiagnosticCode = "E0001"

	// Syntax errors (E01xx)
	CodeUnexpectedToken  DiagnosticCode = "E0101"
	CodeUndefinedSymbol  DiagnosticCode = "E0102"
	CodeDuplicateSymbol  DiagnosticCode = "E0103"
	CodeSlotCollision    DiagnosticCode = "E0104"
	CodeSlotOutOfRange   DiagnosticCode = "E0105"
	CodeInvalidSemantic  DiagnosticCode = "E0106"
	CodeStructRole       DiagnosticCode = "E0107"
	CodeInvalidArgCount  DiagnosticCode = "E0108"
	CodeInvalidOperand   DiagnosticCode = "E0109"
	CodeInvalidTexture   DiagnosticCode = "E0110"
	CodeInvalidArraySize DiagnosticCode = "E0111"
	CodeInvalidType      DiagnosticCode = "E0112"

	// Validation errors (E02xx)
	CodeInvalidEntryPoint DiagnosticCode = "E0201"
	CodeInvalidShaderIO   DiagnosticCode = "E0202"

	// Internal errors (E03xx)
	CodeInternal DiagnosticCode = "E0301"

	// Generator errors (E04xx)
	CodeUnsupportedTarget DiagnosticCode = "E0401"
	CodeUnsupportedNode   DiagnosticCode = "E0402"
)
