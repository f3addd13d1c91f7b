package collections

// Apply maps items through fn, returning one result per item in order.
func Apply[T, V any](items []T, fn func(T) V) []V {
	result := make([]V, len(items))
	for i, item := range items {
		result[i] = fn(item)
	}

	return result
}

// ApplyVariadic is Apply for call sites that list their items inline.
func ApplyVariadic[T, V any](fn func(T) V, items ...T) []V {
	return Apply(items, fn)
}
