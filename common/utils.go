package common

import "cmp"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp restricts v to the inclusive range [lo, hi].
// When lo > hi the lower bound wins, matching how surface extents are clamped.
//
// Parameters:
//   - v: the value to clamp
//   - lo: the inclusive lower bound
//   - hi: the inclusive upper bound
//
// Returns:
//   - T: v limited to the range
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
