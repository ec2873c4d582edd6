// Package test provides testing utilities shared by the compiler packages.
package test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// AssertEqual checks if two values are equal and reports a test error if not.
func AssertEqual[T comparable](t *testing.T, actual, expected T) {
	t.Helper()
	if actual != expected {
		t.Errorf("\nexpected: %v\nactual:   %v", expected, actual)
	}
}

// AssertEqualWithDiff checks if two strings are equal and shows a line diff
// if not.
func AssertEqualWithDiff(t *testing.T, actual, expected string) {
	t.Helper()
	if actual != expected {
		t.Errorf("\n%s", Diff(expected, actual))
	}
}

// Diff produces a line diff between two strings, "-" for expected and "+"
// for actual.
func Diff(expected, actual string) string {
	return cmp.Diff(strings.Split(expected, "\n"), strings.Split(actual, "\n"))
}

// AssertContains reports every line of want that does not occur in got.
func AssertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output does not contain %q:\n%s", w, got)
		}
	}
}

// AssertNotContains reports every line of absent that occurs in got.
func AssertNotContains(t *testing.T, got string, absent ...string) {
	t.Helper()
	for _, a := range absent {
		if strings.Contains(got, a) {
			t.Errorf("output unexpectedly contains %q:\n%s", a, got)
		}
	}
}
