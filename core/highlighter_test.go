package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyHighlights(t *testing.T) {
	detector := NewDetector(DefaultRuleSet())

	text := "Preamble. drag along right ninety five per cent. Postamble."
	result := detector.Detect(text, []string{CategoryDragAlong})
	require.NotEmpty(t, result.Matches)

	highlighted := ApplyHighlights(text, result.Matches)

	assert.Contains(t, highlighted, "«drag_along»")
	assert.Contains(t, highlighted, "«/drag_along»")
	assert.Contains(t, highlighted, "Preamble. ")
	assert.Contains(t, highlighted, " Postamble.")
}

func TestApplyHighlightsNoMatches(t *testing.T) {
	text := "nothing risky here"
	assert.Equal(t, text, ApplyHighlights(text, nil))
}

func TestApplyHighlightsSkipsOverlaps(t *testing.T) {
	text := "alpha beta gamma"
	matches := []Match{
		{Text: "alpha beta", Category: "one", Position: 0},
		{Text: "beta gamma", Category: "two", Position: 6},
	}

	highlighted := ApplyHighlights(text, matches)

	assert.Contains(t, highlighted, "«one»alpha beta«/one»")
	assert.NotContains(t, highlighted, "«two»")
	assert.Contains(t, highlighted, "gamma")
}

func TestApplyHighlightsSortsByPosition(t *testing.T) {
	text := "one two three"
	matches := []Match{
		{Text: "three", Category: "b", Position: 8},
		{Text: "one", Category: "a", Position: 0},
	}

	highlighted := ApplyHighlights(text, matches)

	assert.Equal(t, "«a»one«/a» two «b»three«/b»", highlighted)
}
