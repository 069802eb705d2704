package repository

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/util"
)

const TestAlbumDir = "album"

// SetupTestAlbum creates an empty album on an in-memory filesystem for testing
func SetupTestAlbum(t *testing.T) (*AlbumRepository, billy.Filesystem) {
	t.Helper()

	fs := memfs.New()
	return NewAlbumRepository(fs, TestAlbumDir), fs
}

// TestPNG encodes a solid w x h PNG
func TestPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// MustUpload uploads each name with a small PNG and fails the test if it errors
func MustUpload(t *testing.T, repo *AlbumRepository, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := repo.Upload(name, TestPNG(t, 4, 2)); err != nil {
			t.Fatalf("failed to upload %s: %v", name, err)
		}
	}
}

// MustWriteFile writes raw bytes into the filesystem and fails the test if it errors
func MustWriteFile(t *testing.T, fs billy.Filesystem, filename string, data []byte) {
	t.Helper()
	if err := util.WriteFile(fs, filename, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", filename, err)
	}
}
