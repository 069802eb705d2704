package album

import (
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/lewtec/fotoalbum/internal/domain"
)

// Mode selects how the album is presented
type Mode string

const (
	ModeEdit Mode = "edit"
	ModeView Mode = "view"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeEdit, ModeView:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q, expected edit or view", s)
}

// Box returns the default bounding box side for mode
func (m Mode) Box() int {
	return DefaultConfig().Box(m)
}

// Render decodes an image, rotates it clockwise by angle degrees and fits it
// into the default box of mode.
func Render(r io.Reader, angle int, mode Mode) (image.Image, error) {
	return RenderBox(r, angle, mode.Box())
}

// RenderBox is Render with an explicit box side. Images already inside the
// box are not upscaled.
func RenderBox(r io.Reader, angle int, box int) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("while decoding image: %w", err)
	}
	return Transform(img, angle, box)
}

// Transform applies the rotation and the bounding box to a decoded image
func Transform(img image.Image, angle int, box int) (image.Image, error) {
	if angle%90 != 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidAngle, angle)
	}
	if box <= 0 {
		return nil, fmt.Errorf("bounding box must be positive, got %d", box)
	}
	switch domain.NormalizeAngle(angle) {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}
	return imaging.Fit(img, box, box, imaging.Lanczos), nil
}

// Encode writes img in the format implied by filename (png when unknown)
func Encode(w io.Writer, img image.Image, filename string) error {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		format = imaging.PNG
	}
	return imaging.Encode(w, img, format)
}

// Details are the facts shown in a long listing
type Details struct {
	Format     string
	Width      int
	Height     int
	CapturedAt time.Time
}

// Describe reads dimensions and, when present, the EXIF capture time
func Describe(r io.ReadSeeker) (Details, error) {
	var ret Details
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return ret, fmt.Errorf("while reading image header: %w", err)
	}
	ret.Format = format
	ret.Width = cfg.Width
	ret.Height = cfg.Height
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return ret, err
	}
	x, err := exif.Decode(r)
	if err != nil {
		return ret, nil
	}
	if t, err := x.DateTime(); err == nil {
		ret.CapturedAt = t
	}
	return ret, nil
}
