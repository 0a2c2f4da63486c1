package litegapps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redroid-script/rds/internal/component"
	"github.com/redroid-script/rds/internal/testutil"
)

func TestRegisteredAsDeprecated(t *testing.T) {
	def, ok := component.Resolve(Kind)
	if !ok {
		t.Fatalf("expected %s to be registered", Kind)
	}
	if def.Deprecated == "" {
		t.Fatalf("litegapps should carry a deprecation message")
	}
}

func TestExtractCopiesSystem(t *testing.T) {
	archive := testutil.WriteZip(t, filepath.Join(t.TempDir(), "lite.zip"), map[string]string{
		"system/app/GoogleServicesFramework/GoogleServicesFramework.apk": "apk",
	})

	copyDir := t.TempDir()
	if err := extract(context.Background(), component.ExtractJob{Archive: archive, WorkDir: t.TempDir(), CopyDir: copyDir}); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(copyDir, "system", "app", "GoogleServicesFramework", "GoogleServicesFramework.apk")); err != nil {
		t.Fatalf("expected apk to be copied: %v", err)
	}
}
