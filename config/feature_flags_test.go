package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFeatureFlags_Defaults(t *testing.T) {
	t.Setenv("FEATURE_RATING_NOTIFICATIONS", "")
	t.Setenv("FEATURE_RATING_METRICS", "")

	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureNotifications))
	assert.False(t, ff.IsEnabled(FeatureMetrics))
	assert.False(t, ff.IsEnabled("rating.unknown"))
}

func TestLoadFeatureFlags_EnvOverride(t *testing.T) {
	t.Setenv("FEATURE_RATING_NOTIFICATIONS", "false")
	t.Setenv("FEATURE_RATING_METRICS", "1")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureNotifications))
	assert.True(t, ff.IsEnabled(FeatureMetrics))
}

func TestLoadFeatureFlags_IgnoresGarbage(t *testing.T) {
	t.Setenv("FEATURE_RATING_METRICS", "sometimes")

	assert.False(t, LoadFeatureFlags().IsEnabled(FeatureMetrics))
}

func TestFeatureFlags_Toggle(t *testing.T) {
	ff := LoadFeatureFlags()

	require.NoError(t, ff.EnableFeature(FeatureMetrics))
	assert.True(t, ff.IsEnabled(FeatureMetrics))

	require.NoError(t, ff.DisableFeature(FeatureMetrics))
	assert.False(t, ff.IsEnabled(FeatureMetrics))

	err := ff.EnableFeature("rating.unknown")
	assert.ErrorIs(t, err, ErrFeatureNotFound)
}

func TestFeatureFlags_GetAllFeaturesReturnsCopy(t *testing.T) {
	ff := LoadFeatureFlags()

	all := ff.GetAllFeatures()
	require.Len(t, all, 2)

	f := all[FeatureMetrics]
	f.Enabled = !f.Enabled
	all[FeatureMetrics] = f

	assert.NotEqual(t, f.Enabled, ff.IsEnabled(FeatureMetrics))
}

func TestFeatureFlags_NilIsDisabled(t *testing.T) {
	var ff *FeatureFlags
	assert.False(t, ff.IsEnabled(FeatureNotifications))
}

func TestFeatureNameToEnvKey(t *testing.T) {
	assert.Equal(t, "FEATURE_RATING_NOTIFICATIONS", featureNameToEnvKey(FeatureNotifications))
}
