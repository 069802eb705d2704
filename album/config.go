package album

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AlbumDir string `yaml:"album_dir" env:"FOTOALBUM_DIR"`
	AlbumID  string `yaml:"album_id" env:"FOTOALBUM_ID"`
	BaseURL  string `yaml:"base_url" env:"FOTOALBUM_BASE_URL"`
	Journal  string `yaml:"journal" env:"FOTOALBUM_JOURNAL"`
	EditBox  int    `yaml:"edit_box" env:"FOTOALBUM_EDIT_BOX"`
	ViewBox  int    `yaml:"view_box" env:"FOTOALBUM_VIEW_BOX"`
}

func DefaultConfig() *Config {
	return &Config{
		AlbumDir: "album",
		AlbumID:  "default",
		BaseURL:  "http://localhost:8501",
		EditBox:  300,
		ViewBox:  800,
	}
}

// LoadConfig layers the yaml file (if filename is not empty) and then the
// environment over the defaults.
func LoadConfig(filename string) (*Config, error) {
	ret := DefaultConfig()
	if filename != "" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		err = yaml.Unmarshal(data, ret)
		if err != nil {
			return nil, fmt.Errorf("while parsing config %s: %w", filename, err)
		}
	}
	if err := env.Parse(ret); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Config) Validate() error {
	if c.AlbumDir == "" {
		return errors.New("album_dir must not be empty")
	}
	if c.AlbumID == "" {
		return errors.New("album_id must not be empty")
	}
	if c.EditBox <= 0 || c.ViewBox <= 0 {
		return fmt.Errorf("thumbnail boxes must be positive, got edit=%d view=%d", c.EditBox, c.ViewBox)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("while parsing base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL)
	}
	return nil
}

// Box returns the bounding box side used for mode
func (c *Config) Box(mode Mode) int {
	if mode == ModeView {
		return c.ViewBox
	}
	return c.EditBox
}
