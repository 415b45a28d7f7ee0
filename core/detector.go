package core

import "strings"

// MethodEnhancedPatternMatching identifies the analysis method in responses
const MethodEnhancedPatternMatching = "enhanced_pattern_matching"

const (
	// MaxMatches caps the number of matches returned from a single scan.
	// TotalFound still reflects everything that matched.
	MaxMatches = 15

	// contextRadius is the number of bytes kept on each side of a match
	// when extracting its context window
	contextRadius = 50
)

// Match describes a single clause pattern hit within the scanned text
type Match struct {
	// Text is the matched span, verbatim from the input
	Text string `json:"text"`

	// Context is the surrounding window (up to 50 bytes each side, clipped
	// to the text bounds, whitespace-trimmed) used for human review
	Context string `json:"context"`

	// Category is the clause category the matching rule belongs to
	Category string `json:"type"`

	// Confidence is the matching rule's static confidence score
	Confidence float64 `json:"confidence"`

	// Risk is the matching rule's severity tag
	Risk RiskLevel `json:"risk_level"`

	// Position is the zero-based offset of the match start in the input
	Position int `json:"position"`
}

// End returns the offset just past the matched span
func (m Match) End() int {
	return m.Position + len(m.Text)
}

// Result contains the outcome of a clause scan
type Result struct {
	// Matches found, capped at MaxMatches, in requested-category order then
	// rule declaration order then ascending position
	Matches []Match `json:"detected_clauses"`

	// Method identifies how the analysis was performed
	Method string `json:"analysis_method"`

	// Success is always true for a completed scan; zero matches is a
	// normal empty result, not a failure
	Success bool `json:"success"`

	// TotalFound is the match count before truncation, so callers can tell
	// when results were cut off
	TotalFound int `json:"total_found"`
}

// Truncated reports whether more matches were found than returned
func (r *Result) Truncated() bool {
	return r.TotalFound > len(r.Matches)
}

// Detector scans contract text against a compiled rule set. It holds no
// mutable state, so one Detector may serve concurrent scans.
type Detector struct {
	rules *RuleSet
}

// NewDetector creates a detector over a compiled rule set
func NewDetector(rules *RuleSet) *Detector {
	return &Detector{rules: rules}
}

// Rules returns the rule set the detector scans with
func (d *Detector) Rules() *RuleSet {
	return d.rules
}

// Detect scans text for the requested clause categories and returns every
// hit with its context window. Categories are evaluated in the order given;
// names not present in the rule table contribute nothing and raise no error.
func (d *Detector) Detect(text string, categories []string) *Result {
	all := []Match{}

	for _, name := range categories {
		cat, ok := d.rules.category(name)
		if !ok {
			continue
		}

		for _, rule := range cat.Rules {
			locs := rule.re.FindAllStringIndex(text, -1)
			for _, loc := range locs {
				all = append(all, Match{
					Text:       text[loc[0]:loc[1]],
					Context:    contextWindow(text, loc[0], loc[1]),
					Category:   cat.Name,
					Confidence: rule.Confidence,
					Risk:       rule.Risk,
					Position:   loc[0],
				})
			}
		}
	}

	matches := all
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}

	return &Result{
		Matches:    matches,
		Method:     MethodEnhancedPatternMatching,
		Success:    true,
		TotalFound: len(all),
	}
}

// contextWindow extracts the surrounding text of a match at [start,end),
// clipped to the text bounds and trimmed
func contextWindow(text string, start, end int) string {
	s := start - contextRadius
	if s < 0 {
		s = 0
	}
	e := end + contextRadius
	if e > len(text) {
		e = len(text)
	}
	return strings.TrimSpace(text[s:e])
}
