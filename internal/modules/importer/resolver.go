package importer

// SlugIndex maps slugs to storage IDs for one entity kind.
type SlugIndex map[string]uint

// ResolveSlugs maps slug markers to storage IDs. Markers with no match are
// returned separately, in input order, so callers can retain them for a
// later run instead of silently dropping the reference. Duplicate markers
// collapse to one ID.
func ResolveSlugs(pending []string, idx SlugIndex) (ids []uint, unresolved []string) {
	seen := map[uint]bool{}
	seenMissing := map[string]bool{}
	for _, slug := range pending {
		if slug == "" {
			continue
		}
		id, ok := idx[slug]
		if !ok {
			if !seenMissing[slug] {
				seenMissing[slug] = true
				unresolved = append(unresolved, slug)
			}
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, unresolved
}
