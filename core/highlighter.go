package core

import (
	"sort"
	"strings"
)

// ApplyHighlights re-renders the scanned text with category markers around
// each matched span, for human review of a scan. Matches whose span overlaps
// one already emitted are skipped; the rest of the text passes through
// unchanged.
func ApplyHighlights(text string, matches []Match) string {
	sorted := append([]Match(nil), matches...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	var builder strings.Builder
	lastIndex := 0

	for _, match := range sorted {
		if match.Position < lastIndex || match.End() > len(text) {
			continue
		}

		if match.Position > lastIndex {
			builder.WriteString(text[lastIndex:match.Position])
		}

		builder.WriteString("«" + match.Category + "»")
		builder.WriteString(text[match.Position:match.End()])
		builder.WriteString("«/" + match.Category + "»")

		lastIndex = match.End()
	}

	if lastIndex < len(text) {
		builder.WriteString(text[lastIndex:])
	}

	return builder.String()
}
