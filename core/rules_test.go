package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleSet(t *testing.T) {
	rs := DefaultRuleSet()

	assert.Equal(t, []string{
		CategoryGovernance,
		CategoryDragAlong,
		CategoryTagAlong,
		CategoryPriorityAllocation,
		CategoryNonCompete,
	}, rs.CategoryNames())

	for _, cat := range rs.Categories {
		require.Len(t, cat.Rules, 4, "category %s", cat.Name)

		// Reference table orders rules by descending confidence
		assert.Equal(t, 0.95, cat.Rules[0].Confidence)
		assert.Equal(t, 0.9, cat.Rules[1].Confidence)
		assert.Equal(t, 0.85, cat.Rules[2].Confidence)
		assert.Equal(t, 0.8, cat.Rules[3].Confidence)

		for _, rule := range cat.Rules {
			assert.NotNil(t, rule.re, "pattern %q not compiled", rule.Pattern)
		}
	}

	gov, ok := rs.category(CategoryGovernance)
	require.True(t, ok)
	assert.Equal(t, RiskHigh, gov.Rules[0].Risk)

	tag, ok := rs.category(CategoryTagAlong)
	require.True(t, ok)
	assert.Equal(t, RiskLow, tag.Rules[0].Risk)

	nc, ok := rs.category(CategoryNonCompete)
	require.True(t, ok)
	assert.Equal(t, RiskMedium, nc.Rules[0].Risk)
}

func TestDefaultRuleSetIsIsolated(t *testing.T) {
	first := DefaultRuleSet()
	first.Categories[0].Rules[0].Confidence = 0.1

	second := DefaultRuleSet()
	assert.Equal(t, 0.95, second.Categories[0].Rules[0].Confidence)
}

func TestBuilderRejectsInvalidPattern(t *testing.T) {
	_, err := NewRuleSetBuilder().
		WithMetadata("1.0.0", "bad pattern", "test").
		AddRule("broken", `(unclosed`, 0.5, RiskLow).
		Build()

	require.Error(t, err)
	assert.Equal(t, ErrorCategoryConfiguration, CategoryOf(err))
}

func TestBuilderRejectsConfidenceOutOfRange(t *testing.T) {
	_, err := NewRuleSetBuilder().
		WithMetadata("1.0.0", "bad confidence", "test").
		AddRule("broken", `fine`, 1.5, RiskLow).
		Build()

	require.Error(t, err)
	assert.Equal(t, ErrorCategoryConfiguration, CategoryOf(err))
}

func TestBuilderRejectsUnknownRisk(t *testing.T) {
	_, err := NewRuleSetBuilder().
		WithMetadata("1.0.0", "bad risk", "test").
		AddRule("broken", `fine`, 0.5, RiskLevel("severe")).
		Build()

	require.Error(t, err)
	assert.Equal(t, ErrorCategoryConfiguration, CategoryOf(err))
}

func TestBuilderRejectsEmptyRuleSet(t *testing.T) {
	_, err := NewRuleSetBuilder().
		WithMetadata("1.0.0", "empty", "test").
		Build()

	require.Error(t, err)
}

func TestBuilderGroupsRulesByCategory(t *testing.T) {
	rs, err := NewRuleSetBuilder().
		WithMetadata("1.0.0", "grouping", "test").
		AddRule("one", `a`, 0.9, RiskHigh).
		AddRule("two", `b`, 0.8, RiskLow).
		AddRule("one", `c`, 0.7, RiskMedium).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, rs.CategoryNames())

	one, ok := rs.category("one")
	require.True(t, ok)
	require.Len(t, one.Rules, 2)
	assert.Equal(t, `a`, one.Rules[0].Pattern)
	assert.Equal(t, `c`, one.Rules[1].Pattern)
}

func TestSaveAndLoadRuleSet(t *testing.T) {
	rs, err := NewRuleSetBuilder().
		WithMetadata("2.1.0", "roundtrip", "test").
		AddRule("governance", `vote.*president`, 0.9, RiskHigh).
		AddRule("drag_along", `drag.along`, 0.95, RiskHigh).
		Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, SaveRuleSet(rs, path))

	loaded, err := LoadRuleSet(path)
	require.NoError(t, err)

	assert.Equal(t, "2.1.0", loaded.Metadata.Version)
	assert.NotEmpty(t, loaded.Metadata.Hash)
	assert.Equal(t, rs.CategoryNames(), loaded.CategoryNames())

	gov, ok := loaded.category("governance")
	require.True(t, ok)
	assert.Equal(t, 0.9, gov.Rules[0].Confidence)
	assert.Equal(t, RiskHigh, gov.Rules[0].Risk)

	// Loaded sets are ready to scan with
	detector := NewDetector(loaded)
	result := detector.Detect("the holders vote as the president directs", []string{"governance"})
	assert.Equal(t, 1, result.TotalFound)
}

func TestLoadRuleSetRejectsInvalidFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRuleSet(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("categories: [whoops"), 0644))

		_, err := LoadRuleSet(path)
		require.Error(t, err)
		assert.Equal(t, ErrorCategoryConfiguration, CategoryOf(err))
	})

	t.Run("invalid pattern fails at load, not scan", func(t *testing.T) {
		content := `metadata:
  version: "1.0.0"
categories:
  - name: broken
    rules:
      - pattern: "(unclosed"
        confidence: 0.5
        risk: low
`
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		_, err := LoadRuleSet(path)
		require.Error(t, err)
		assert.Equal(t, ErrorCategoryConfiguration, CategoryOf(err))
	})
}
