package source

// indexBy builds a lookup from a discriminator to the first item carrying it.
func indexBy[T any](items []T, key func(T) string) map[string]T {
	idx := make(map[string]T, len(items))
	for _, it := range items {
		k := key(it)
		if _, seen := idx[k]; !seen {
			idx[k] = it
		}
	}
	return idx
}

// firstName returns the name of the first entry, or def when the list is empty
// or the name is blank.
func firstName(items []namedTotal, def string) string {
	if len(items) == 0 || items[0].Name == "" {
		return def
	}
	return items[0].Name
}
