package relations

// missing returns the elements of from that have no match in against.
// Both directions of a relation diff reduce to this: the delete-set is
// current minus desired, the insert-set is desired minus current. Pure
// function, testable without persistence.
func missing[T, U any](from []T, against []U, match func(T, U) bool) []T {
	var out []T

	for _, candidate := range from {
		found := false
		for _, other := range against {
			if match(candidate, other) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, candidate)
		}
	}

	return out
}

// dedupeBy keeps the first element per key, preserving order.
func dedupeBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))

	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}

	return out
}
