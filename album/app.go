package album

import (
	"context"
	"fmt"
	"image"
	"log"
	"net/url"
	"strings"

	"github.com/lewtec/fotoalbum/internal/domain"
)

// AlbumApp is the state shared by every interaction with the album. Only
// the store's metadata outlives a request; the presentation mode is derived
// from the request each time.
type AlbumApp struct {
	Store  domain.AlbumStore
	Config *Config
}

// Rendered is one gallery entry. Err is set when that image could not be
// read or decoded.
type Rendered struct {
	Filename string
	Rotation int
	Image    image.Image
	Err      error
}

func (a *AlbumApp) config() *Config {
	if a.Config == nil {
		a.Config = DefaultConfig()
	}
	return a.Config
}

// ModeFromQuery selects view mode when the share link parameter is present
func ModeFromQuery(query url.Values) Mode {
	if query.Has("album_id") {
		return ModeView
	}
	return ModeEdit
}

// ShareURL is the read-only link to the album
func (a *AlbumApp) ShareURL() string {
	cfg := a.config()
	query := url.Values{}
	query.Set("album_id", cfg.AlbumID)
	return fmt.Sprintf("%s/?%s", strings.TrimSuffix(cfg.BaseURL, "/"), query.Encode())
}

func (a *AlbumApp) Upload(name string, data []byte) (string, error) {
	saved, err := a.Store.Upload(name, data)
	if err != nil {
		return saved, fmt.Errorf("while uploading '%s': %w", name, err)
	}
	log.Printf("album: uploaded %s (%d bytes)", saved, len(data))
	return saved, nil
}

func (a *AlbumApp) Rotate(name string, turn domain.Turn) (int, error) {
	angle, err := a.Store.Rotate(name, turn)
	if err != nil {
		return angle, fmt.Errorf("while rotating '%s': %w", name, err)
	}
	log.Printf("album: %s is now rotated %d degrees", name, angle)
	return angle, nil
}

func (a *AlbumApp) Move(name string, direction domain.Direction) error {
	if err := a.Store.Move(name, direction); err != nil {
		return fmt.Errorf("while moving '%s' %s: %w", name, direction, err)
	}
	log.Printf("album: moved %s %s", name, direction)
	return nil
}

func (a *AlbumApp) Delete(ctx context.Context, name string) error {
	if err := a.Store.Delete(ctx, name); err != nil {
		return fmt.Errorf("while deleting '%s': %w", name, err)
	}
	log.Printf("album: deleted %s", name)
	return nil
}

func (a *AlbumApp) DeleteAlbum() error {
	if err := a.Store.DeleteAlbum(); err != nil {
		return err
	}
	log.Printf("album: removed album %s", a.config().AlbumDir)
	return nil
}

// RenderImage renders one stored image for mode
func (a *AlbumApp) RenderImage(name string, mode Mode) (image.Image, error) {
	f, err := a.Store.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return RenderBox(f, a.Store.Rotation(name), a.config().Box(mode))
}

// Gallery renders the whole album in display order. A failing image is
// reported in its entry and does not stop the others.
func (a *AlbumApp) Gallery(mode Mode) []Rendered {
	names := a.Store.List()
	ret := make([]Rendered, 0, len(names))
	for _, name := range names {
		entry := Rendered{Filename: name, Rotation: a.Store.Rotation(name)}
		entry.Image, entry.Err = a.RenderImage(name, mode)
		if entry.Err != nil {
			log.Printf("album: while rendering %s: %s", name, entry.Err)
		}
		ret = append(ret, entry)
	}
	return ret
}

// Describe returns the long-listing details of a stored image
func (a *AlbumApp) Describe(name string) (Details, error) {
	f, err := a.Store.Open(name)
	if err != nil {
		return Details{}, err
	}
	defer f.Close()
	return Describe(f)
}
