package opengapps

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/redroid-script/rds/internal/component"
	"github.com/redroid-script/rds/internal/image"
	"github.com/redroid-script/rds/internal/testutil"
)

func tarball(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	return buf.String()
}

func TestRegisteredForLegacyOnly(t *testing.T) {
	def, ok := component.Resolve(Kind)
	if !ok {
		t.Fatalf("expected %s to be registered", Kind)
	}
	if def.Architectures["arm64"] != "arm64-v8a" {
		t.Fatalf("unexpected arm64 abi %q", def.Architectures["arm64"])
	}

	eleven, _ := image.ParseAndroidTag("11.0.0-latest")
	if _, err := def.Check("amd64", eleven); err != nil {
		t.Fatalf("android 11 should be supported: %v", err)
	}
	twelve, _ := image.ParseAndroidTag("12.0.0-latest")
	if _, err := def.Check("amd64", twelve); err == nil {
		t.Fatalf("android 12 should be rejected")
	}
}

func TestExtractInstallsCorePackages(t *testing.T) {
	if _, err := exec.LookPath("tar"); err != nil {
		t.Skip("tar not available")
	}
	prev := TarCommand
	TarCommand = []string{"tar", "-xf"}
	defer func() { TarCommand = prev }()

	archive := testutil.WriteZip(t, filepath.Join(t.TempDir(), "open_gapps.zip"), map[string]string{
		"Core/gmscore-x86_64.tar.lz": tarball(t, map[string]string{
			"gmscore-x86_64/nodpi/priv-app/PrebuiltGmsCore/PrebuiltGmsCore.apk": "gms",
		}),
		"Core/vending-common.tar.lz": tarball(t, map[string]string{
			"vending-common/common/etc/permissions/vending.xml": "xml",
		}),
		"Core/setupwizarddefault-x86_64.tar.lz": "not a tarball",
		"installer.sh":                          "#!/sbin/sh",
	})

	copyDir := t.TempDir()
	job := component.ExtractJob{
		Archive: archive,
		WorkDir: t.TempDir(),
		CopyDir: copyDir,
		Logger:  logrus.NewEntry(logrus.New()),
	}
	if err := extract(context.Background(), job); err != nil {
		t.Fatalf("extract: %v", err)
	}

	if _, err := os.Stat(filepath.Join(copyDir, "system", "priv-app", "PrebuiltGmsCore", "PrebuiltGmsCore.apk")); err != nil {
		t.Fatalf("expected priv-app to be installed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(copyDir, "system", "etc", "permissions", "vending.xml")); err != nil {
		t.Fatalf("expected common files to be installed: %v", err)
	}
}
