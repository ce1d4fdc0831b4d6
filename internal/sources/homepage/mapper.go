package homepage

import "sort"

// Entry is one importable bookmark
type Entry struct {
	Category string
	Name     string
	URL      string
}

// Entries flattens a BookmarksConfig in file order.
// Entries without href are skipped. Names within one YAML map are sorted
// because map order is not stable.
func Entries(config BookmarksConfig) []Entry {
	entries := make([]Entry, 0)

	for _, category := range config {
		for _, categoryName := range sortedKeys(category) {
			for _, bookmarkMap := range category[categoryName] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					entryList := bookmarkMap[bookmarkName]
					// Each bookmark has a list with a single entry
					if len(entryList) == 0 {
						continue
					}
					entry := entryList[0]

					// Skip if no href
					if entry.Href == "" {
						continue
					}

					name := bookmarkName
					if name == "" {
						name = entry.Abbr
					}

					entries = append(entries, Entry{
						Category: categoryName,
						Name:     name,
						URL:      entry.Href,
					})
				}
			}
		}
	}

	return entries
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
