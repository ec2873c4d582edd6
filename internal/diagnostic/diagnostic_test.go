package diagnostic

import (
	"errors"
	"fmt"
	"testing"
)

// positionedError is a minimal Positioned implementation.
type positionedError struct {
	offset int
	code   DiagnosticCode
	msg    string
}

func (e *positionedError) Error() string                  { return fmt.Sprintf("%d: %s", e.offset, e.msg) }
func (e *positionedError) Offset() int                    { return e.offset }
func (e *positionedError) DiagnosticCode() DiagnosticCode { return e.code }
func (e *positionedError) Msg() string                    { return e.msg }

// ----------------------------------------------------------------------------
// LineIndex Tests
// ----------------------------------------------------------------------------

func TestLineIndexPosition(t *testing.T) {
	idx := NewLineIndex("ab\ncd\r\nef\rgh")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{4, 2, 2},
		{7, 3, 1},
		{10, 4, 1},
		{-5, 1, 1},
		{100, 4, 3},
	}
	for _, tt := range tests {
		pos := idx.Position(tt.offset)
		if pos.Line != tt.line || pos.Column != tt.column {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", tt.offset, pos.Line, pos.Column, tt.line, tt.column)
		}
	}

	if idx.LineCount() != 4 {
		t.Errorf("LineCount() = %d, want 4", idx.LineCount())
	}
	for line, want := range map[int]string{1: "ab", 2: "cd", 3: "ef", 4: "gh", 0: "", 5: ""} {
		if got := idx.Line(line); got != want {
			t.Errorf("Line(%d) = %q, want %q", line, got, want)
		}
	}
}

// ----------------------------------------------------------------------------
// Diagnostic Tests
// ----------------------------------------------------------------------------

func TestFromError(t *testing.T) {
	src := "float a;\nfloat b = ;\n"
	err := fmt.Errorf("parsing: %w", &positionedError{offset: 19, code: CodeUnexpectedToken, msg: "expected expression"})

	d, ok := FromError(err, "s.shader", src)
	if !ok {
		t.Fatal("FromError should unwrap a positioned error")
	}
	if d.Code != CodeUnexpectedToken || d.Severity != Error {
		t.Errorf("unexpected diagnostic %+v", d)
	}
	if got := d.Error(); got != "s.shader:2:11: error: expected expression" {
		t.Errorf("Error() = %q", got)
	}

	want := "s.shader:2:11: error: expected expression [E0101]\n" +
		"    float b = ;\n" +
		"              ^\n"
	if got := NewDiagnosticList("s.shader", src).FormatDiagnostic(d); got != want {
		t.Errorf("FormatDiagnostic:\n%s\nwant:\n%s", got, want)
	}

	if _, ok := FromError(errors.New("plain"), "s.shader", src); ok {
		t.Error("FromError should reject errors without a position")
	}
}

func TestDiagnosticList(t *testing.T) {
	src := "line one\nline two\n"
	dl := NewDiagnosticList("f.shader", src)
	dl.AddWarning(0, "unused")
	if dl.HasErrors() || dl.Err() != nil {
		t.Error("warnings are not errors")
	}

	dl.AddErrorWithCode(14, CodeUndefinedSymbol, "undefined identifier 'two'")
	dl.AddErrorWithCode(0, CodeInternal, "second")
	if !dl.HasErrors() {
		t.Fatal("expected errors")
	}
	if n := len(dl.Diagnostics()); n != 3 {
		t.Errorf("Diagnostics() has %d entries, want 3", n)
	}
	if n := len(dl.Errors()); n != 2 {
		t.Errorf("Errors() has %d entries, want 2", n)
	}
	if got := dl.Err().Error(); got != "f.shader:2:6: error: undefined identifier 'two'" {
		t.Errorf("Err() = %q", got)
	}

	want := "f.shader:1:1: warning: unused\n" +
		"    line one\n" +
		"    ^\n" +
		"f.shader:2:6: error: undefined identifier 'two' [E0102]\n" +
		"    line two\n" +
		"         ^\n" +
		"f.shader:1:1: error: second [E0301]\n" +
		"    line one\n" +
		"    ^\n"
	if got := dl.Format(); got != want {
		t.Errorf("Format:\n%s\nwant:\n%s", got, want)
	}
}

func TestSeverityString(t *testing.T) {
	for s, want := range map[Severity]string{Error: "error", Warning: "warning", Note: "note", Severity(9): "unknown"} {
		if got := s.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", s, got, want)
		}
	}
}
