package testutil

import (
	"errors"
	"strings"
	"testing"
)

// AssertEqualSlices compares two slices element-by-element.
func AssertEqualSlices[T comparable](t *testing.T, got []T, want ...T) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got len %d, want %d: %v", len(got), len(want), got)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("at index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// AssertStrings compares two string slices element-by-element.
// It provides nicer %q formatting for string values.
func AssertStrings(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got len %d, want %d: %q", len(got), len(want), got)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("at index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

// AssertContainsAll asserts that got contains every substring in subs.
func AssertContainsAll(t *testing.T, got string, subs ...string) {
	t.Helper()
	for _, substr := range subs {
		if !strings.Contains(got, substr) {
			t.Errorf("result %q should contain %q", got, substr)
		}
	}
}

// AssertNotContains asserts that got contains none of subs.
func AssertNotContains(t *testing.T, got string, subs ...string) {
	t.Helper()
	for _, substr := range subs {
		if strings.Contains(got, substr) {
			t.Errorf("result %q should not contain %q", got, substr)
		}
	}
}

// AssertErrorAs asserts that err wraps an error of type E and returns it.
func AssertErrorAs[E error](t *testing.T, err error) E {
	t.Helper()
	var target E
	if !errors.As(err, &target) {
		t.Fatalf("error = %v (%T), want %T", err, err, target)
	}
	return target
}

// MustNoErr fails the test immediately if err is non-nil.
// Use this for setup operations where failure means the test cannot proceed.
func MustNoErr(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
