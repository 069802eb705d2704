package main

import (
	"bytes"
	"context"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lewtec/fotoalbum/internal/repository"
)

// resetFlags puts every flag back to its default so commands do not leak
// state between executions of the shared rootCmd
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// executeCommand is a helper to run a cobra command and capture its output
func executeCommand(args ...string) (string, string, error) {
	// Redirect log output for capture
	var out, errOut bytes.Buffer
	log.SetOutput(&errOut)
	defer log.SetOutput(os.Stderr) // Restore default logger

	resetFlags(rootCmd)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)

	return out.String(), errOut.String(), err
}

// writeImages writes small PNG files into dir and returns their paths
func writeImages(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, repository.TestPNG(t, 40, 20), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestAlbumCommands_Scenario(t *testing.T) {
	tempDir := t.TempDir()
	albumDir := filepath.Join(tempDir, "album")
	sources := writeImages(t, t.TempDir(), "a.png", "b.png", "c.png")
	t.Setenv("FOTOALBUM_JOURNAL", filepath.Join(tempDir, "journal.db"))

	t.Run("empty album", func(t *testing.T) {
		out, _, err := executeCommand("list", "--album", albumDir)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(out, "empty") {
			t.Errorf("expected empty album message, got: %s", out)
		}
	})

	t.Run("upload", func(t *testing.T) {
		out, errOut, err := executeCommand(append([]string{"upload", "-a", albumDir}, sources...)...)
		if err != nil {
			t.Fatalf("upload failed: %v, output: %s", err, errOut)
		}
		if !strings.Contains(out, "Uploaded 3 images") {
			t.Errorf("unexpected output: %s", out)
		}
		for _, sidecar := range []string{repository.RotationsFile, repository.OrderFile} {
			if _, err := os.Stat(filepath.Join(albumDir, sidecar)); err != nil {
				t.Errorf("expected %s to be written: %v", sidecar, err)
			}
		}
	})

	t.Run("move and rotate", func(t *testing.T) {
		if _, _, err := executeCommand("move", "-a", albumDir, "b.png", "up"); err != nil {
			t.Fatalf("move failed: %v", err)
		}
		out, _, err := executeCommand("rotate", "-a", albumDir, "a.png", "cw")
		if err != nil {
			t.Fatalf("rotate failed: %v", err)
		}
		if !strings.Contains(out, "a.png: 90°") {
			t.Errorf("unexpected rotate output: %s", out)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if _, _, err := executeCommand("delete", "-a", albumDir, "c.png"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, _, err := executeCommand("delete", "-a", albumDir, "c.png"); err == nil {
			t.Error("expected deleting a missing image to fail")
		}
	})

	t.Run("list reflects every change", func(t *testing.T) {
		out, _, err := executeCommand("list", "-a", albumDir)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 images, got: %s", out)
		}
		if !strings.Contains(lines[0], "b.png") || !strings.Contains(lines[1], "a.png") || !strings.Contains(lines[1], "90°") {
			t.Errorf("unexpected listing: %s", out)
		}
	})

	t.Run("history shows the deletion", func(t *testing.T) {
		out, _, err := executeCommand("history", "-a", albumDir)
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, "c.png") {
			t.Errorf("expected c.png in history, got: %s", out)
		}
	})

	t.Run("render", func(t *testing.T) {
		output := filepath.Join(tempDir, "a_view.png")
		if _, _, err := executeCommand("render", "-a", albumDir, "a.png", "--mode", "view", "-o", output); err != nil {
			t.Fatalf("render failed: %v", err)
		}
		f, err := os.Open(output)
		if err != nil {
			t.Fatalf("render output missing: %v", err)
		}
		defer f.Close()
		cfg, err := png.DecodeConfig(f)
		if err != nil {
			t.Fatalf("render output is not a png: %v", err)
		}
		if cfg.Width != 20 || cfg.Height != 40 {
			t.Errorf("got %dx%d, want 20x40", cfg.Width, cfg.Height)
		}
	})

	t.Run("delete album", func(t *testing.T) {
		if _, _, err := executeCommand("delete-album", "-a", albumDir); err == nil {
			t.Error("expected delete-album without --yes to fail")
		}
		if _, _, err := executeCommand("delete-album", "-a", albumDir, "--yes"); err != nil {
			t.Fatalf("delete-album failed: %v", err)
		}
		if _, err := os.Stat(albumDir); !os.IsNotExist(err) {
			t.Errorf("expected album directory to be removed, got %v", err)
		}
	})
}

func TestShareCommand(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	config := `
album_dir: photos
album_id: workshop
base_url: https://photos.example.com
`
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	out, _, err := executeCommand("share", "-c", configPath)
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if strings.TrimSpace(out) != "https://photos.example.com/?album_id=workshop" {
		t.Errorf("unexpected share url: %s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	albumDir := filepath.Join(t.TempDir(), "album")

	t.Run("invalid config path", func(t *testing.T) {
		_, _, err := executeCommand("list", "-c", "/path/to/some/nonexistent/config.yaml")
		if err == nil || !strings.Contains(err.Error(), "failed to load config") {
			t.Errorf("expected config load error, got: %v", err)
		}
	})

	t.Run("bad rotate direction", func(t *testing.T) {
		if _, _, err := executeCommand("rotate", "-a", albumDir, "a.png", "sideways"); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("history without journal", func(t *testing.T) {
		_, _, err := executeCommand("history", "-a", albumDir)
		if err == nil || !strings.Contains(err.Error(), "no journal configured") {
			t.Errorf("expected missing journal error, got: %v", err)
		}
	})

	t.Run("upload reports unsupported files", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "notes.txt")
		os.WriteFile(src, []byte("hello"), 0644)
		_, errOut, err := executeCommand("upload", "-a", albumDir, src)
		if err == nil {
			t.Error("expected an error")
		}
		if !strings.Contains(errOut, "invalid image name") {
			t.Errorf("expected log to mention the invalid name, got: %s", errOut)
		}
	})
}
