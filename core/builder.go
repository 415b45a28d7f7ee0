package core

import "time"

// RuleSetBuilder provides a fluent interface for creating rule sets
type RuleSetBuilder struct {
	rs *RuleSet
}

// NewRuleSetBuilder creates a new rule set builder
func NewRuleSetBuilder() *RuleSetBuilder {
	return &RuleSetBuilder{
		rs: &RuleSet{
			Metadata: RuleSetMetadata{
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			Categories: []CategoryRules{},
		},
	}
}

// WithMetadata sets the rule set metadata
func (b *RuleSetBuilder) WithMetadata(version, description, author string) *RuleSetBuilder {
	b.rs.Metadata.Version = version
	b.rs.Metadata.Description = description
	b.rs.Metadata.Author = author
	return b
}

// AddRule appends a rule to a category, creating the category at the end of
// the declaration order if it does not exist yet. Rule order within a
// category follows the order of AddRule calls.
func (b *RuleSetBuilder) AddRule(category, pattern string, confidence float64, risk RiskLevel) *RuleSetBuilder {
	rule := PatternRule{
		Pattern:    pattern,
		Confidence: confidence,
		Risk:       risk,
	}

	for i := range b.rs.Categories {
		if b.rs.Categories[i].Name == category {
			b.rs.Categories[i].Rules = append(b.rs.Categories[i].Rules, rule)
			return b
		}
	}

	b.rs.Categories = append(b.rs.Categories, CategoryRules{
		Name:  category,
		Rules: []PatternRule{rule},
	})
	return b
}

// Build validates and compiles the final rule set. Pattern or value defects
// surface here, before the set can reach a detector.
func (b *RuleSetBuilder) Build() (*RuleSet, error) {
	b.rs.Metadata.UpdatedAt = time.Now()

	if err := b.rs.compile(); err != nil {
		return nil, err
	}
	return b.rs, nil
}
