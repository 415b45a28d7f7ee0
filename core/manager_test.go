package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeRuleFile(t *testing.T, path, version, pattern string) {
	t.Helper()

	rs, err := NewRuleSetBuilder().
		WithMetadata(version, "manager test", "test").
		AddRule("governance", pattern, 0.9, RiskHigh).
		Build()
	require.NoError(t, err)
	require.NoError(t, SaveRuleSet(rs, path))
}

func TestRuleManagerDefaults(t *testing.T) {
	m, err := NewRuleManager("", zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, DefaultRuleSet().CategoryNames(), m.Active().CategoryNames())
	assert.Len(t, m.History(), 1)

	// Nothing to reload without a file
	assert.NoError(t, m.Reload())
	assert.Error(t, m.Watch())
}

func TestRuleManagerLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRuleFile(t, path, "1.0.0", `vote.*president`)

	m, err := NewRuleManager(path, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, []string{"governance"}, m.Active().CategoryNames())
	assert.Equal(t, "1.0.0", m.Active().Metadata.Version)
}

func TestRuleManagerInitialLoadFailureIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [broken"), 0644))

	_, err := NewRuleManager(path, zap.NewNop())
	assert.Error(t, err)
}

func TestRuleManagerReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRuleFile(t, path, "1.0.0", `vote.*president`)

	m, err := NewRuleManager(path, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	writeRuleFile(t, path, "2.0.0", `drag.along`)
	require.NoError(t, m.Reload())

	assert.Equal(t, "2.0.0", m.Active().Metadata.Version)
	assert.Len(t, m.History(), 2)
}

func TestRuleManagerReloadKeepsPreviousOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRuleFile(t, path, "1.0.0", `vote.*president`)

	m, err := NewRuleManager(path, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, os.WriteFile(path, []byte("categories: [broken"), 0644))

	assert.Error(t, m.Reload())
	assert.Equal(t, "1.0.0", m.Active().Metadata.Version)
	assert.Len(t, m.History(), 1)
}

func TestRuleManagerCloseWhileEventsInFlight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRuleFile(t, path, "1.0.0", `vote.*president`)

	m, err := NewRuleManager(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Watch())

	rs, err := NewRuleSetBuilder().
		WithMetadata("2.0.0", "manager test", "test").
		AddRule("governance", `drag.along`, 0.9, RiskHigh).
		Build()
	require.NoError(t, err)

	// Keep watch events arriving while Close runs
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = SaveRuleSet(rs, path)
		}
	}()

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, m.Close())
	<-done

	// Close is idempotent
	assert.NoError(t, m.Close())
}

func TestRuleManagerWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRuleFile(t, path, "1.0.0", `vote.*president`)

	m, err := NewRuleManager(path, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Watch())

	writeRuleFile(t, path, "2.0.0", `drag.along`)

	assert.Eventually(t, func() bool {
		return m.Active().Metadata.Version == "2.0.0"
	}, 3*time.Second, 20*time.Millisecond)
}
