package util

import (
	"fmt"
	"slices"
	"strings"
)

// EqualSlices reports whether a and b hold equal elements. With ignoreOrder
// both are compared after sorting by their printed form.
func EqualSlices[T any](a, b []T, equal func(x, y T) bool, ignoreOrder bool) bool {
	if len(a) != len(b) {
		return false
	}

	if ignoreOrder {
		byString := func(x, y T) int {
			return strings.Compare(fmt.Sprint(x), fmt.Sprint(y))
		}
		a = slices.SortedFunc(slices.Values(a), byString)
		b = slices.SortedFunc(slices.Values(b), byString)
	}

	return slices.EqualFunc(a, b, equal)
}

// HasPrefixFunc reports whether s starts with prefix under equal.
func HasPrefixFunc[T any](s, prefix []T, equal func(x, y T) bool) bool {
	if len(s) < len(prefix) {
		return false
	}
	return EqualSlices(s[:len(prefix)], prefix, equal, false)
}
