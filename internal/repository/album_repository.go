package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"

	"github.com/lewtec/fotoalbum/internal/domain"
)

// AlbumRepository implements domain.AlbumStore over a directory of images
// and two JSON sidecar files.
type AlbumRepository struct {
	fs        billy.Filesystem
	dir       string
	notifiers []domain.Notifier

	mu        sync.Mutex
	rotations map[string]int
	order     map[string]int
}

// NewAlbumRepository opens the album stored under dir inside fs and loads
// its metadata.
func NewAlbumRepository(fs billy.Filesystem, dir string, notifiers ...domain.Notifier) *AlbumRepository {
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		dir = "."
	}
	r := &AlbumRepository{
		fs:        fs,
		dir:       dir,
		notifiers: notifiers,
	}
	if err := r.Reload(); err != nil {
		log.Printf("repository: album %s opened with empty metadata: %s", dir, err)
	}
	return r
}

// Dir returns the album directory inside the filesystem
func (r *AlbumRepository) Dir() string {
	return r.dir
}

// Filesystem returns the filesystem the album lives in
func (r *AlbumRepository) Filesystem() billy.Filesystem {
	return r.fs
}

// Path returns the location of an image inside the filesystem
func (r *AlbumRepository) Path(name string) string {
	return r.fs.Join(r.dir, name)
}

// AddNotifier registers a hook called after every successful deletion
func (r *AlbumRepository) AddNotifier(n domain.Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers = append(r.notifiers, n)
}

// Reload re-reads both sidecar files from storage. A sidecar that cannot be
// read leaves an empty mapping in place and its error is returned.
func (r *AlbumRepository) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rotErr, orderErr error
	r.rotations, rotErr = readSidecar(r.fs, r.Path(RotationsFile))
	r.order, orderErr = readSidecar(r.fs, r.Path(OrderFile))
	return errors.Join(rotErr, orderErr)
}

// List returns the image filenames sorted by rank, unranked last, ties by name
func (r *AlbumRepository) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list()
}

func (r *AlbumRepository) list() []string {
	entries, err := r.fs.ReadDir(r.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("repository: while listing %s: %s", r.dir, err)
		}
		return []string{}
	}
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !domain.IsImageFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, iok := r.order[names[i]]
		rj, jok := r.order[names[j]]
		switch {
		case iok && jok && ri != rj:
			return ri < rj
		case iok != jok:
			return iok
		}
		return names[i] < names[j]
	})
	return names
}

func (r *AlbumRepository) has(name string) bool {
	_, err := r.fs.Stat(r.Path(name))
	return err == nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidName, name)
	}
	if !domain.IsImageFile(name) {
		return fmt.Errorf("%w: %q has an unsupported extension", domain.ErrInvalidName, name)
	}
	return nil
}

// Save writes the image bytes, overwriting any file with the same name
func (r *AlbumRepository) Save(name string, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(name, data)
}

func (r *AlbumRepository) save(name string, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := r.fs.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("while creating album directory: %w", err)
	}
	if err := util.WriteFile(r.fs, r.Path(name), data, 0644); err != nil {
		return "", fmt.Errorf("while writing image '%s': %w", name, err)
	}
	if _, ok := r.rotations[name]; !ok {
		r.rotations[name] = 0
		if err := r.saveRotations(); err != nil {
			return name, err
		}
	}
	return name, nil
}

// Upload saves the image and appends it to the display order
func (r *AlbumRepository) Upload(name string, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved, err := r.save(name, data)
	if err != nil {
		return saved, err
	}
	return saved, r.appendOrder(name)
}

// AppendOrder gives name the rank after the highest one, if it has none
func (r *AlbumRepository) AppendOrder(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendOrder(name)
}

func (r *AlbumRepository) appendOrder(name string) error {
	if _, ok := r.order[name]; ok {
		return nil
	}
	next := 0
	for _, rank := range r.order {
		if rank >= next {
			next = rank + 1
		}
	}
	r.order[name] = next
	return r.saveOrder()
}

// Open returns a reader over the stored image bytes
func (r *AlbumRepository) Open(name string) (io.ReadSeekCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	f, err := r.fs.Open(r.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("while opening image '%s': %w", name, err)
	}
	return f, nil
}

func (r *AlbumRepository) Rotation(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotations[name]
}

func (r *AlbumRepository) Rotations() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyMap(r.rotations)
}

func (r *AlbumRepository) Order() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyMap(r.order)
}

// SetRotation stores angle, normalised to [0, 360)
func (r *AlbumRepository) SetRotation(name string, angle int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := validateName(name); err != nil {
		return err
	}
	if !r.has(name) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	return r.setRotation(name, angle)
}

func (r *AlbumRepository) setRotation(name string, angle int) error {
	if angle%90 != 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidAngle, angle)
	}
	r.rotations[name] = domain.NormalizeAngle(angle)
	return r.saveRotations()
}

// Rotate applies a quarter turn to the current angle
func (r *AlbumRepository) Rotate(name string, turn domain.Turn) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.has(name) {
		return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	angle := domain.NormalizeAngle(r.rotations[name] + int(turn))
	if err := r.setRotation(name, angle); err != nil {
		return r.rotations[name], err
	}
	return angle, nil
}

// Move swaps name with its neighbour and renumbers the whole listing
func (r *AlbumRepository) Move(name string, direction domain.Direction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	images := r.list()
	idx := -1
	for i, image := range images {
		if image == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	var other int
	switch direction {
	case domain.Up:
		other = idx - 1
	case domain.Down:
		other = idx + 1
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidDirection, direction)
	}
	if other < 0 || other >= len(images) {
		return nil
	}
	images[idx], images[other] = images[other], images[idx]
	for i, image := range images {
		r.order[image] = i
	}
	return r.saveOrder()
}

// Delete prunes the metadata of name and removes its file. Notifiers run
// only after the file is gone.
func (r *AlbumRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	notifiers, err := r.delete(name)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	for _, n := range notifiers {
		if err := n.AfterDelete(ctx, name); err != nil {
			log.Printf("repository: notifier failed after deleting '%s': %s", name, err)
		}
	}
	return nil
}

func (r *AlbumRepository) delete(name string) ([]domain.Notifier, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, ok := r.rotations[name]; ok {
		delete(r.rotations, name)
		if err := r.saveRotations(); err != nil {
			return nil, err
		}
	}
	if _, ok := r.order[name]; ok {
		delete(r.order, name)
		if err := r.saveOrder(); err != nil {
			return nil, err
		}
	}
	if !r.has(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if err := r.fs.Remove(r.Path(name)); err != nil {
		return nil, fmt.Errorf("while removing image '%s': %w", name, err)
	}
	return append([]domain.Notifier(nil), r.notifiers...), nil
}

// DeleteAlbum removes the album directory and forgets all metadata
func (r *AlbumRepository) DeleteAlbum() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotations = map[string]int{}
	r.order = map[string]int{}
	if err := util.RemoveAll(r.fs, r.dir); err != nil {
		return fmt.Errorf("while removing album directory '%s': %w", r.dir, err)
	}
	return nil
}

func (r *AlbumRepository) saveRotations() error {
	return writeSidecar(r.fs, r.dir, r.Path(RotationsFile), r.rotations)
}

func (r *AlbumRepository) saveOrder() error {
	return writeSidecar(r.fs, r.dir, r.Path(OrderFile), r.order)
}

func copyMap(m map[string]int) map[string]int {
	ret := make(map[string]int, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

// Verify that AlbumRepository implements domain.AlbumStore
var _ domain.AlbumStore = (*AlbumRepository)(nil)
