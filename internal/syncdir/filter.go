package syncdir

// FilterExcluded returns a copy of doc with the excluded folder names
// removed. A document left with no folders routes to the Uncategorized
// bucket like any unfiled document; the engine itself has no knowledge
// of exclusions beyond the bulk purge of excluded subtrees.
func FilterExcluded(doc Document, excluded map[string]struct{}) Document {
	if len(excluded) == 0 || len(doc.Folders) == 0 {
		return doc
	}

	kept := make([]string, 0, len(doc.Folders))

	for _, folder := range doc.Folders {
		if _, skip := excluded[folder]; skip {
			continue
		}

		kept = append(kept, folder)
	}

	doc.Folders = kept

	return doc
}

// ExclusionSet builds the lookup set the filter and engine consume.
func ExclusionSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return set
}
