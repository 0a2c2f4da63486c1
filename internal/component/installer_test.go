package component

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redroid-script/rds/internal/cache"
	"github.com/redroid-script/rds/internal/fetch"
	"github.com/redroid-script/rds/internal/image"
	"github.com/redroid-script/rds/internal/testutil"
)

const anyMD5 = "00000000000000000000000000000000"

type installFixture struct {
	installer *Installer
	upstream  *testutil.Upstream
	cacheRoot string
}

func newInstallFixture(t *testing.T, kind string, files map[string]string) *installFixture {
	t.Helper()

	archive := testutil.WriteZip(t, filepath.Join(t.TempDir(), kind+".zip"), files)
	body, err := os.ReadFile(archive)
	require.NoError(t, err)
	checksum, err := fetch.HashFile(archive, anyMD5)
	require.NoError(t, err)

	upstream := testutil.NewUpstream(t)
	upstream.Serve("/"+kind+".zip", testutil.Route{Body: body})

	cacheRoot := filepath.Join(t.TempDir(), "cache")
	manager := cache.NewManager(cacheRoot, fetch.New(fetch.Options{InitialBackoff: time.Millisecond}), nil)
	catalog := NewCatalog([]Source{{
		Kind:     kind,
		Android:  AnyAndroid,
		Arch:     "x86_64",
		URL:      upstream.URL + "/" + kind + ".zip",
		Checksum: checksum,
	}})

	return &installFixture{
		installer: &Installer{Fetcher: manager, Catalog: catalog, ScratchRoot: t.TempDir()},
		upstream:  upstream,
		cacheRoot: cacheRoot,
	}
}

func mustTag(t *testing.T, raw string) image.AndroidTag {
	t.Helper()
	tag, err := image.ParseAndroidTag(raw)
	require.NoError(t, err)
	return tag
}

func copySystemDefinition(kind string) Definition {
	return Definition{
		Kind:          kind,
		CopyDir:       kind,
		Group:         GroupGapps,
		Constraint:    ">= 12",
		Architectures: map[string]string{"amd64": "x86_64"},
		Extract: func(_ context.Context, job ExtractJob) error {
			if err := ExtractZip(job.Archive, job.WorkDir); err != nil {
				return err
			}
			return CopyTree(filepath.Join(job.WorkDir, "system"), filepath.Join(job.CopyDir, "system"))
		},
	}
}

func TestInstallerInstallsIntoCopyDir(t *testing.T) {
	fx := newInstallFixture(t, "fakegapps", map[string]string{
		"system/priv-app/Phonesky/Phonesky.apk": "apk",
	})
	def := copySystemDefinition("fakegapps")

	buildDir := t.TempDir()
	target := Target{BuildDir: buildDir, Android: mustTag(t, "14.0.0_64only-latest"), Arch: "amd64", RunID: "test"}
	require.NoError(t, fx.installer.Install(context.Background(), def, target))

	data, err := os.ReadFile(filepath.Join(buildDir, "fakegapps", "system", "priv-app", "Phonesky", "Phonesky.apk"))
	require.NoError(t, err)
	assert.Equal(t, "apk", string(data))

	// 第二次安装命中缓存，不再访问上游。
	require.NoError(t, fx.installer.Install(context.Background(), def, Target{
		BuildDir: t.TempDir(), Android: target.Android, Arch: "amd64",
	}))
	assert.Equal(t, 1, fx.upstream.Requests("/fakegapps.zip"))

	scratch, err := os.ReadDir(fx.installer.ScratchRoot)
	require.NoError(t, err)
	assert.Empty(t, scratch, "scratch directories are removed")
}

func TestInstallerRejectsUnsupportedTargets(t *testing.T) {
	fx := newInstallFixture(t, "fakegapps", map[string]string{"system/a": "a"})
	def := copySystemDefinition("fakegapps")

	var unsupported *UnsupportedError
	err := fx.installer.Install(context.Background(), def, Target{BuildDir: t.TempDir(), Android: mustTag(t, "14.0.0-latest"), Arch: "arm64"})
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Reason, "arm64")

	err = fx.installer.Install(context.Background(), def, Target{BuildDir: t.TempDir(), Android: mustTag(t, "11.0.0-latest"), Arch: "amd64"})
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Reason, ">= 12")

	assert.Zero(t, fx.upstream.Requests("/fakegapps.zip"))
}

func TestInstallerReportsMissingSource(t *testing.T) {
	fx := newInstallFixture(t, "fakegapps", map[string]string{"system/a": "a"})
	def := copySystemDefinition("othergapps")

	err := fx.installer.Install(context.Background(), def, Target{BuildDir: t.TempDir(), Android: mustTag(t, "13.0.0-latest"), Arch: "amd64"})
	var missing *SourceNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "13.0.0", missing.Android)
	assert.Equal(t, "x86_64", missing.Arch)
}

func TestInstallerPropagatesIntegrityErrors(t *testing.T) {
	fx := newInstallFixture(t, "fakegapps", map[string]string{"system/a": "a"})
	fx.installer.Catalog.Merge([]Source{{
		Kind: "fakegapps", Android: AnyAndroid, Arch: "x86_64",
		URL: fx.upstream.URL + "/fakegapps.zip", Checksum: anyMD5,
	}})

	err := fx.installer.Install(context.Background(), copySystemDefinition("fakegapps"), Target{
		BuildDir: t.TempDir(), Android: mustTag(t, "13.0.0-latest"), Arch: "amd64",
	})
	var integrity *fetch.IntegrityError
	require.True(t, errors.As(err, &integrity), "got %v", err)
	assert.Contains(t, err.Error(), "fakegapps")
}
