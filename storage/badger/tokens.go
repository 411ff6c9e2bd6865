package badger

import (
	"sort"
	"strings"

	"github.com/poiesic/hindsight/core"
)

// Stop words excluded from the keyword posting index
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// entryTokenIDs returns the deduplicated, sorted token IDs for the
// searchable text of an entry: problem, situation, resolution, and tags.
func entryTokenIDs(e *core.Entry) []core.ID {
	seen := make(map[core.ID]bool)
	collect := func(text string) {
		for _, token := range tokenizeAndFilter(text) {
			seen[core.IDFromContent(token)] = true
		}
	}
	collect(e.Problem)
	collect(e.Situation)
	collect(e.Resolution)
	for _, tag := range e.Tags {
		collect(tag)
	}

	ids := make([]core.ID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// tokenIDsEqual compares two sorted token ID slices.
func tokenIDsEqual(a, b []core.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
