package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogBuiltins(t *testing.T) {
	catalog, err := LoadCatalog(nil)
	require.NoError(t, err)

	src, ok := catalog.Lookup("mindthegapps", "13.0.0", "x86_64")
	require.True(t, ok)
	assert.Equal(t, "eee87a540b6e778f3a114fff29e133aa", src.Checksum)
	assert.Contains(t, src.URL, "MindTheGapps-13.0.0-x86_64")

	src, ok = catalog.Lookup("MindTheGapps", "12.0.0", "arm64")
	require.True(t, ok)
	assert.Contains(t, src.URL, "MindTheGapps-12.1.0-arm64")

	_, ok = catalog.Lookup("mindthegapps", "15.0.0", "x86_64")
	assert.False(t, ok)

	_, ok = catalog.Lookup("ndk", "11.0.0", "x86_64")
	assert.False(t, ok, "ndk has no builtin source")
}

func TestCatalogWildcardMatchesAnyAndroid(t *testing.T) {
	catalog, err := LoadCatalog(nil)
	require.NoError(t, err)

	for _, android := range []string{"9.0.0", "10.0.0", "11.0.0"} {
		src, ok := catalog.Lookup("opengapps", android, "arm64-v8a")
		require.True(t, ok, android)
		assert.Equal(t, "2feaf25d03530892c6146687ffa08bc2", src.Checksum)
	}
}

func TestCatalogOverrides(t *testing.T) {
	override := Source{
		Kind:     "mindthegapps",
		Android:  "13.0.0",
		Arch:     "x86_64",
		URL:      "https://mirror.example.com/mtg13.zip",
		Checksum: "0123456789abcdef0123456789abcdef",
	}
	exact := Source{
		Kind:     "opengapps",
		Android:  "11.0.0",
		Arch:     "x86_64",
		URL:      "https://mirror.example.com/og11.zip",
		Checksum: "fedcba9876543210fedcba9876543210",
	}

	catalog, err := LoadCatalog([]Source{override, exact})
	require.NoError(t, err)

	src, ok := catalog.Lookup("mindthegapps", "13.0.0", "x86_64")
	require.True(t, ok)
	assert.Equal(t, override.URL, src.URL)

	src, ok = catalog.Lookup("opengapps", "11.0.0", "x86_64")
	require.True(t, ok)
	assert.Equal(t, exact.URL, src.URL, "exact android entry wins over wildcard")

	src, ok = catalog.Lookup("opengapps", "10.0.0", "x86_64")
	require.True(t, ok)
	assert.Equal(t, "5fb186bfb7bed8925290f79247bec4cf", src.Checksum)

	assert.Len(t, catalog.List(), 9)
}

func TestParseCatalogRejectsInvalidEntries(t *testing.T) {
	_, err := parseCatalog([]byte(`
[[Source]]
Kind = "ndk"
Android = "11.0.0"
Arch = "x86_64"
URL = "https://example.com/ndk.zip"
Checksum = "not-a-digest"
`))
	assert.Error(t, err)
}
