package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// RiskLevel is the editorial severity tag attached to a pattern rule,
// independent of its confidence score
type RiskLevel string

const (
	// RiskLow represents low risk clauses
	RiskLow RiskLevel = "low"

	// RiskMedium represents medium risk clauses
	RiskMedium RiskLevel = "medium"

	// RiskHigh represents high risk clauses
	RiskHigh RiskLevel = "high"
)

// Clause categories known to the default rule table
const (
	// CategoryGovernance covers governance compromise clauses
	CategoryGovernance = "governance"

	// CategoryDragAlong covers drag-along rights mechanisms
	CategoryDragAlong = "drag_along"

	// CategoryTagAlong covers tag-along protection mechanisms
	CategoryTagAlong = "tag_along"

	// CategoryPriorityAllocation covers liquidation preferences and waterfalls
	CategoryPriorityAllocation = "priority_allocation"

	// CategoryNonCompete covers non-compete survival provisions
	CategoryNonCompete = "non_compete"
)

// PatternRule describes a single weighted clause pattern. Confidence and
// risk are hand-authored editorial judgments tied to the pattern; they are
// carried verbatim onto every match the pattern produces.
type PatternRule struct {
	// Pattern is the regex source. It is compiled with case-insensitive
	// and dot-matches-newline semantics so multi-line clauses match as a
	// single span.
	Pattern string `yaml:"pattern"`

	// Confidence in [0,1] that a match truly represents the category
	Confidence float64 `yaml:"confidence"`

	// Risk is the severity tag attached to matches of this rule
	Risk RiskLevel `yaml:"risk"`

	re *regexp.Regexp
}

// CategoryRules groups an ordered list of rules under a clause category
type CategoryRules struct {
	Name  string        `yaml:"name"`
	Rules []PatternRule `yaml:"rules"`
}

// RuleSetMetadata contains information about a rule set
type RuleSetMetadata struct {
	// Version of the rule set
	Version string `yaml:"version"`

	// When the rule set was created
	CreatedAt time.Time `yaml:"created_at"`

	// Last modification time
	UpdatedAt time.Time `yaml:"updated_at"`

	// Description of the rule set
	Description string `yaml:"description"`

	// Author of the rule set
	Author string `yaml:"author"`

	// Hash of the rule set content for integrity verification
	Hash string `yaml:"hash,omitempty"`
}

// RuleSet is the process-wide clause pattern configuration: an ordered
// sequence of categories, each carrying an ordered sequence of rules.
// A RuleSet is read-only after compile, so concurrent scans may share one
// without locking.
type RuleSet struct {
	// Metadata about the rule set
	Metadata RuleSetMetadata `yaml:"metadata"`

	// Categories contained in the rule set, in declaration order
	Categories []CategoryRules `yaml:"categories"`

	byName map[string]int
}

// Default clause patterns carried over from the reference rule table.
// Confidence and risk values are domain judgments and must not be altered
// without a corresponding product decision.
var defaultCategories = []CategoryRules{
	{
		Name: CategoryGovernance,
		Rules: []PatternRule{
			{Pattern: `shareholder.*vote.*accordance.*with.*instructions.*provided.*by.*president`, Confidence: 0.95, Risk: RiskHigh},
			{Pattern: `vote.*shares.*accordance.*president.*instructions`, Confidence: 0.9, Risk: RiskHigh},
			{Pattern: `governance.*compromise.*president.*instructions`, Confidence: 0.85, Risk: RiskHigh},
			{Pattern: `holder.*vote.*shares.*accordance.*instructions.*president`, Confidence: 0.8, Risk: RiskHigh},
		},
	},
	{
		Name: CategoryDragAlong,
		Rules: []PatternRule{
			{Pattern: `drag.along.*right.*ninety.five.*per.*cent`, Confidence: 0.95, Risk: RiskHigh},
			{Pattern: `95%.*holders.*shares.*offeror.*require.*sell`, Confidence: 0.9, Risk: RiskHigh},
			{Pattern: `offeror.*may.*require.*holders.*sell.*shares`, Confidence: 0.85, Risk: RiskHigh},
			{Pattern: `forced.*sale.*shares.*majority.*shareholders`, Confidence: 0.8, Risk: RiskHigh},
		},
	},
	{
		Name: CategoryTagAlong,
		Rules: []PatternRule{
			{Pattern: `tag.along.*right.*transferor.*shareholder`, Confidence: 0.95, Risk: RiskLow},
			{Pattern: `holder.*sell.*shares.*same.*price.*terms`, Confidence: 0.9, Risk: RiskLow},
			{Pattern: `shareholder.*transfer.*shares.*holder.*right.*sell`, Confidence: 0.85, Risk: RiskLow},
			{Pattern: `protection.*minority.*shareholders.*sales`, Confidence: 0.8, Risk: RiskLow},
		},
	},
	{
		Name: CategoryPriorityAllocation,
		Rules: []PatternRule{
			{Pattern: `priority.*allocation.*sale.*price.*waterfall`, Confidence: 0.95, Risk: RiskMedium},
			{Pattern: `liquidation.*preference.*distribution.*proceeds`, Confidence: 0.9, Risk: RiskMedium},
			{Pattern: `sale.*proceeds.*allocated.*priority.*order`, Confidence: 0.85, Risk: RiskMedium},
			{Pattern: `distribution.*waterfall.*priority.*shareholders`, Confidence: 0.8, Risk: RiskMedium},
		},
	},
	{
		Name: CategoryNonCompete,
		Rules: []PatternRule{
			{Pattern: `non.compete.*restrictions.*remain.*applicable.*avoidance.*doubts`, Confidence: 0.95, Risk: RiskMedium},
			{Pattern: `non.solicit.*provisions.*survive.*completion`, Confidence: 0.9, Risk: RiskMedium},
			{Pattern: `restrictions.*continue.*apply.*after.*sale`, Confidence: 0.85, Risk: RiskMedium},
			{Pattern: `competition.*restrictions.*remain.*effect`, Confidence: 0.8, Risk: RiskMedium},
		},
	},
}

// DefaultRuleSet returns a compiled copy of the built-in clause rule table
func DefaultRuleSet() *RuleSet {
	rs := &RuleSet{
		Metadata: RuleSetMetadata{
			Version:     "1.0.0",
			Description: "Built-in contract clause risk patterns",
			Author:      "clausescan",
		},
		Categories: cloneCategories(defaultCategories),
	}

	// The built-in table is static and covered by tests; a compile failure
	// here is a programming error, not a runtime condition.
	if err := rs.compile(); err != nil {
		panic(fmt.Sprintf("built-in rule table is invalid: %v", err))
	}

	return rs
}

func cloneCategories(cats []CategoryRules) []CategoryRules {
	out := make([]CategoryRules, len(cats))
	for i, cat := range cats {
		out[i] = CategoryRules{
			Name:  cat.Name,
			Rules: append([]PatternRule(nil), cat.Rules...),
		}
	}
	return out
}

// compile validates the rule set and compiles every pattern. It must be
// called before the rule set is used for scanning; an error here is a
// configuration defect and must fail the load, never a scan.
func (rs *RuleSet) compile() error {
	if err := validateRuleSet(rs); err != nil {
		return err
	}

	rs.byName = make(map[string]int, len(rs.Categories))
	for i := range rs.Categories {
		cat := &rs.Categories[i]
		rs.byName[cat.Name] = i

		for j := range cat.Rules {
			rule := &cat.Rules[j]
			re, err := regexp.Compile("(?is)" + rule.Pattern)
			if err != nil {
				return newError(ErrorCategoryConfiguration,
					fmt.Errorf("category %q rule %d: invalid pattern: %w", cat.Name, j+1, err))
			}
			rule.re = re
		}
	}

	return nil
}

// category returns the rules for a category name, or false when the name
// is not part of the table
func (rs *RuleSet) category(name string) (*CategoryRules, bool) {
	idx, ok := rs.byName[name]
	if !ok {
		return nil, false
	}
	return &rs.Categories[idx], true
}

// CategoryNames returns the category names in declaration order
func (rs *RuleSet) CategoryNames() []string {
	names := make([]string, len(rs.Categories))
	for i, cat := range rs.Categories {
		names[i] = cat.Name
	}
	return names
}

// validateRuleSet checks rule set invariants before compilation
func validateRuleSet(rs *RuleSet) error {
	if len(rs.Categories) == 0 {
		return newError(ErrorCategoryConfiguration, fmt.Errorf("rule set has no categories"))
	}

	seen := make(map[string]bool, len(rs.Categories))
	for i, cat := range rs.Categories {
		if cat.Name == "" {
			return newError(ErrorCategoryConfiguration, fmt.Errorf("category %d has no name", i+1))
		}
		if seen[cat.Name] {
			return newError(ErrorCategoryConfiguration, fmt.Errorf("duplicate category %q", cat.Name))
		}
		seen[cat.Name] = true

		if len(cat.Rules) == 0 {
			return newError(ErrorCategoryConfiguration, fmt.Errorf("category %q has no rules", cat.Name))
		}

		for j, rule := range cat.Rules {
			if rule.Pattern == "" {
				return newError(ErrorCategoryConfiguration,
					fmt.Errorf("category %q rule %d has no pattern", cat.Name, j+1))
			}
			if rule.Confidence < 0 || rule.Confidence > 1 {
				return newError(ErrorCategoryConfiguration,
					fmt.Errorf("category %q rule %d: confidence %v outside [0,1]", cat.Name, j+1, rule.Confidence))
			}
			switch rule.Risk {
			case RiskLow, RiskMedium, RiskHigh:
			default:
				return newError(ErrorCategoryConfiguration,
					fmt.Errorf("category %q rule %d: unknown risk level %q", cat.Name, j+1, rule.Risk))
			}
		}
	}

	return nil
}

// LoadRuleSet reads a YAML rule file, validates it and compiles every
// pattern. Any defect in the file is reported here, at load time.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, newError(ErrorCategoryConfiguration, fmt.Errorf("failed to parse rule file: %w", err))
	}

	if err := rs.compile(); err != nil {
		return nil, fmt.Errorf("invalid rule file %s: %w", path, err)
	}

	// Record hash for integrity checking
	rs.Metadata.Hash = calculateRuleSetHash(data)

	return &rs, nil
}

// SaveRuleSet saves a rule set to a YAML file
func SaveRuleSet(rs *RuleSet, path string) error {
	data, err := yaml.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to marshal rule set: %w", err)
	}

	// Calculate and update the hash for integrity checking
	rs.Metadata.Hash = calculateRuleSetHash(data)

	// Re-marshal with the updated hash
	data, err = yaml.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to re-marshal rule set with hash: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rule file: %w", err)
	}

	return nil
}

// calculateRuleSetHash generates a hash of the rule file content for
// integrity checking
func calculateRuleSetHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
