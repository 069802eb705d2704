package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/spf13/cobra"

	"github.com/lewtec/fotoalbum/album"
	"github.com/lewtec/fotoalbum/internal/journal"
	"github.com/lewtec/fotoalbum/internal/repository"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fotoalbum",
	Short: "Manage a shareable photo album",
	Long: strings.TrimSpace(`
Upload, reorder, rotate and delete the images of a photo album kept in a plain directory,
and print the read-only link used to share it.
    `),
	SilenceUsage: true,
}

// openedApp bundles the application with the resources it holds open
type openedApp struct {
	*album.AlbumApp
	Journal *journal.Journal
}

func (o *openedApp) Close() {
	if o.Journal != nil {
		if err := o.Journal.Close(); err != nil {
			log.Printf("journal: while closing: %s", err)
		}
	}
}

// openApp loads the configuration named by the persistent flags and opens
// the album it points to
func openApp(cmd *cobra.Command) (*openedApp, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	config, err := album.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if albumDir, _ := cmd.Flags().GetString("album"); albumDir != "" {
		config.AlbumDir = albumDir
	}

	absDir, err := filepath.Abs(config.AlbumDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve album path: %w", err)
	}
	parent := filepath.Dir(absDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("failed to create album parent directory: %w", err)
	}
	store := repository.NewAlbumRepository(osfs.New(parent), filepath.Base(absDir))

	ret := &openedApp{AlbumApp: &album.AlbumApp{Store: store, Config: config}}
	if config.Journal != "" {
		j, err := journal.Open(config.Journal, config.AlbumID)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		ret.Journal = j
		store.AddNotifier(j)
	}
	return ret, nil
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file for the album")
	rootCmd.PersistentFlags().StringP("album", "a", "", "Album directory (overrides the config)")
	rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	rootCmd.MarkPersistentFlagDirname("album")
}
