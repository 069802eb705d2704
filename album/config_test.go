package album

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return filename
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.AlbumDir != "album" || cfg.AlbumID != "default" || cfg.EditBox != 300 || cfg.ViewBox != 800 {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		filename := writeConfig(t, `
album_dir: photos
base_url: https://example.com
view_box: 1024
`)
		cfg, err := LoadConfig(filename)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.AlbumDir != "photos" || cfg.BaseURL != "https://example.com" || cfg.ViewBox != 1024 {
			t.Errorf("yaml not applied: %+v", cfg)
		}
		if cfg.EditBox != 300 {
			t.Errorf("EditBox = %d, want default 300", cfg.EditBox)
		}
	})

	t.Run("environment overrides yaml", func(t *testing.T) {
		filename := writeConfig(t, "album_dir: photos\n")
		t.Setenv("FOTOALBUM_DIR", "from-env")
		t.Setenv("FOTOALBUM_EDIT_BOX", "150")

		cfg, err := LoadConfig(filename)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.AlbumDir != "from-env" || cfg.EditBox != 150 {
			t.Errorf("env not applied: %+v", cfg)
		}
	})

	t.Run("bad environment value", func(t *testing.T) {
		t.Setenv("FOTOALBUM_VIEW_BOX", "huge")

		_, err := LoadConfig("")
		if err == nil || !strings.Contains(err.Error(), "parse env:") {
			t.Fatalf("LoadConfig() error = %v, want parse env error", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("validation", func(t *testing.T) {
		for _, content := range []string{
			"album_dir: ''\n",
			"edit_box: 0\n",
			"base_url: not a url\n",
		} {
			if _, err := LoadConfig(writeConfig(t, content)); err == nil {
				t.Errorf("expected validation error for %q", content)
			}
		}
	})
}
