// Package sliceutil provides generic slice helpers.
package sliceutil

// Deduplicate keeps the first item for each key, preserving order.
//
//	subjects := []string{"Math", "Science", "math"}
//	sliceutil.Deduplicate(subjects, strings.ToLower) // [Math Science]
func Deduplicate[T any, K comparable](items []T, key func(T) K) []T {
	if len(items) < 2 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
