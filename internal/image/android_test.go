package image

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndroidTag(t *testing.T) {
	tag, err := ParseAndroidTag("16.0.0_64only-latest")
	require.NoError(t, err)
	assert.Equal(t, "16.0.0_64only", tag.Major)
	assert.Equal(t, "16.0.0", tag.Base)
	assert.Equal(t, []string{"64only"}, tag.Features)
	assert.Equal(t, "latest", tag.Revision)
	assert.Equal(t, 16, tag.Series)
	assert.Equal(t, LifecycleSupported, tag.Lifecycle())
	assert.Empty(t, tag.Warning())
}

func TestParseAndroidTagWithRevisionFeature(t *testing.T) {
	tag, err := ParseAndroidTag("12.0.0_64only_r220830-latest")
	require.NoError(t, err)
	assert.Equal(t, []string{"64only", "r220830"}, tag.Features)
	assert.True(t, tag.HasFeature(Feature64Only))
	assert.Equal(t, 12, tag.Series)
}

func TestParseAndroidTagRejects(t *testing.T) {
	for _, raw := range []string{
		"16.0.0_64only",
		"16.0.0_64only-",
		"-latest",
		"8.1.0-latest",
		"16.0.0_32only-latest",
		"16.0.0-latest-extra",
	} {
		_, err := ParseAndroidTag(raw)
		assert.Error(t, err, raw)
	}
}

func TestLifecycleWarnings(t *testing.T) {
	legacy, err := ParseAndroidTag("11.0.0-latest")
	require.NoError(t, err)
	assert.Equal(t, LifecycleLegacy, legacy.Lifecycle())
	assert.Contains(t, legacy.Warning(), "no longer receives security updates")

	mixed, err := ParseAndroidTag("14.0.0-latest")
	require.NoError(t, err)
	assert.Equal(t, LifecycleMixedMode, mixed.Lifecycle())
	assert.Contains(t, mixed.Warning(), "mixed mode")
}

func TestKnownMajorsParseAsSemver(t *testing.T) {
	majors := KnownMajors()
	require.NotEmpty(t, majors)
	for _, major := range majors {
		tag, err := ParseAndroidTag(major + "-latest")
		require.NoError(t, err, major)
		assert.NotPanics(t, func() { _ = tag.Version() }, major)
	}
}

func TestVersionConstraint(t *testing.T) {
	constraint, err := semver.NewConstraint("<= 11")
	require.NoError(t, err)

	eleven, err := ParseAndroidTag("11.0.0_r221023-latest")
	require.NoError(t, err)
	assert.True(t, constraint.Check(eleven.Version()))

	twelve, err := ParseAndroidTag("12.0.0-latest")
	require.NoError(t, err)
	assert.False(t, constraint.Check(twelve.Version()))
}
