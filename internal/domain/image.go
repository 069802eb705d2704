package domain

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound         = errors.New("image not found")
	ErrInvalidName      = errors.New("invalid image name")
	ErrInvalidAngle     = errors.New("rotation angle must be a multiple of 90")
	ErrInvalidDirection = errors.New("invalid direction")
)

// AcceptedExtensions is the upload allow-list, lowercase and without the dot.
var AcceptedExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "heic"}

// IsImageFile reports whether name carries one of AcceptedExtensions (case-insensitive).
func IsImageFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

// Image is a single album entry as seen by consumers
type Image struct {
	Filename string
	Rotation int
	Rank     int
	Ranked   bool
}

// Direction moves an image one slot in the listing
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case Up, Down:
		return d, nil
	}
	return "", ErrInvalidDirection
}

// Turn is a quarter rotation applied to an image
type Turn int

const (
	Clockwise        Turn = 90
	CounterClockwise Turn = -90
)

func ParseTurn(s string) (Turn, error) {
	switch strings.ToLower(s) {
	case "cw", "right", "+90", "90":
		return Clockwise, nil
	case "ccw", "left", "-90":
		return CounterClockwise, nil
	}
	return 0, ErrInvalidDirection
}

// NormalizeAngle maps angle into [0, 360)
func NormalizeAngle(angle int) int {
	return ((angle % 360) + 360) % 360
}

// AlbumStore defines the interface for album storage operations
type AlbumStore interface {
	// List returns the accepted image filenames in display order
	List() []string

	// Save writes the image bytes and initialises its rotation entry
	Save(name string, data []byte) (string, error)

	// Upload saves the image and appends it to the display order
	Upload(name string, data []byte) (string, error)

	// Open returns the stored bytes of an image
	Open(name string) (io.ReadSeekCloser, error)

	// Rotation returns the stored angle for name, 0 when unset
	Rotation(name string) int

	// Rotations returns a copy of the rotation map
	Rotations() map[string]int

	// Order returns a copy of the order map
	Order() map[string]int

	// SetRotation persists angle for name
	SetRotation(name string, angle int) error

	// Rotate turns the image a quarter and returns the new angle
	Rotate(name string, turn Turn) (int, error)

	// Move swaps the image with its neighbour in the listing
	Move(name string, direction Direction) error

	// Delete removes the image and its metadata
	Delete(ctx context.Context, name string) error

	// DeleteAlbum removes the whole album directory
	DeleteAlbum() error

	// Reload re-reads the metadata from storage
	Reload() error
}

// Notifier is told about images removed from the album after the local
// deletion succeeded. Its errors never undo the deletion.
type Notifier interface {
	AfterDelete(ctx context.Context, name string) error
}

type NotifierFunc func(ctx context.Context, name string) error

func (f NotifierFunc) AfterDelete(ctx context.Context, name string) error {
	return f(ctx, name)
}
