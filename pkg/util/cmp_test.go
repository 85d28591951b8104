package util

import (
	"strings"
	"testing"
)

func eq(a, b int) bool { return a == b }

func TestEqualSlices(t *testing.T) {
	tests := []struct {
		name        string
		a, b        []int
		ignoreOrder bool
		want        bool
	}{
		{"equal", []int{1, 2, 3}, []int{1, 2, 3}, false, true},
		{"order matters", []int{1, 2, 3}, []int{3, 2, 1}, false, false},
		{"order ignored", []int{1, 2, 3}, []int{3, 1, 2}, true, true},
		{"length", []int{1, 2}, []int{1, 2, 3}, true, false},
		{"empty", nil, []int{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EqualSlices(tt.a, tt.b, eq, tt.ignoreOrder); got != tt.want {
				t.Errorf("EqualSlices = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqualSlicesDoesNotReorderInput(t *testing.T) {
	a := []int{3, 1, 2}
	EqualSlices(a, []int{1, 2, 3}, eq, true)
	if a[0] != 3 || a[1] != 1 || a[2] != 2 {
		t.Errorf("input mutated: %v", a)
	}
}

func TestHasPrefixFunc(t *testing.T) {
	words := []string{"Ouvre", "CHROME", "une", "fois"}

	if !HasPrefixFunc(words, []string{"ouvre", "chrome"}, strings.EqualFold) {
		t.Error("expected case-insensitive prefix match")
	}
	if HasPrefixFunc(words[:1], []string{"ouvre", "chrome"}, strings.EqualFold) {
		t.Error("short slice must not match")
	}
	if HasPrefixFunc(words, []string{"ferme"}, strings.EqualFold) {
		t.Error("unexpected match")
	}
}
