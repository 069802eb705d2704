package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-git/go-billy/v6"
	"github.com/google/uuid"
)

const (
	RotationsFile = "rotations.json"
	OrderFile     = "image_order.json"
)

// readSidecar loads a filename -> int mapping. Absent, corrupt or unreadable
// files yield an empty mapping; only storage failures other than absence are
// returned.
func readSidecar(fs billy.Filesystem, filename string) (map[string]int, error) {
	ret := map[string]int{}
	f, err := fs.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		return ret, nil
	}
	if err != nil {
		log.Printf("repository: while opening %s: %s", filename, err)
		return ret, fmt.Errorf("while opening %s: %w", filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		log.Printf("repository: while reading %s: %s", filename, err)
		return ret, fmt.Errorf("while reading %s: %w", filename, err)
	}
	if len(data) == 0 {
		return ret, nil
	}
	if err := json.Unmarshal(data, &ret); err != nil {
		log.Printf("repository: %s is not a valid mapping, ignoring it: %s", filename, err)
		return map[string]int{}, nil
	}
	// a literal null decodes into a nil map
	if ret == nil {
		return map[string]int{}, nil
	}
	return ret, nil
}

// writeSidecar rewrites the whole mapping through a temporary file renamed
// over the target.
func writeSidecar(fs billy.Filesystem, dir, filename string, mapping map[string]int) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("while encoding %s: %w", filename, err)
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("while creating album directory: %w", err)
	}
	tempFile := fs.Join(dir, fmt.Sprintf(".%s.tmp", uuid.New()))
	f, err := fs.Create(tempFile)
	if err != nil {
		return fmt.Errorf("while creating temporary file for %s: %w", filename, err)
	}
	_, err = f.Write(data)
	if err != nil {
		f.Close()
		fs.Remove(tempFile)
		return fmt.Errorf("while writing %s: %w", filename, err)
	}
	err = f.Close()
	if err != nil {
		fs.Remove(tempFile)
		return fmt.Errorf("while writing %s: %w", filename, err)
	}
	err = fs.Rename(tempFile, filename)
	if err != nil {
		fs.Remove(tempFile)
		return fmt.Errorf("while replacing %s: %w", filename, err)
	}
	return nil
}
