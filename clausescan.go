// Package clausescan detects risk-bearing legal clause patterns in contract
// text. It scans against a static table of weighted regular expressions per
// clause category and returns ranked, context-annotated matches.
package clausescan

import (
	"github.com/clausescan/clausescan-go/core"
)

// Version of the clausescan library
const Version = "1.0.0"

var defaultRules = core.DefaultRuleSet()

// Categories returns the clause categories of the built-in rule table, in
// declaration order
func Categories() []string {
	return defaultRules.CategoryNames()
}

// Analyze scans text against the built-in rule table for the requested
// clause categories. A nil or empty category list scans every category.
func Analyze(text string, categories []string) *core.Result {
	return AnalyzeWithRules(defaultRules, text, categories)
}

// AnalyzeWithRules scans text against a custom compiled rule set
func AnalyzeWithRules(rules *core.RuleSet, text string, categories []string) *core.Result {
	if len(categories) == 0 {
		categories = rules.CategoryNames()
	}

	detector := core.NewDetector(rules)
	return detector.Detect(text, categories)
}

// AnalyzeFromFile loads a rule file and scans text with it
func AnalyzeFromFile(rulePath string, text string, categories []string) (*core.Result, error) {
	rules, err := core.LoadRuleSet(rulePath)
	if err != nil {
		return nil, err
	}

	return AnalyzeWithRules(rules, text, categories), nil
}
