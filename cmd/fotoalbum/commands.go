package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lewtec/fotoalbum/album"
	"github.com/lewtec/fotoalbum/internal/domain"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the album images in display order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		long, _ := cmd.Flags().GetBool("long")

		names := app.Store.List()
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "The album is empty. Upload images to get started!")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for i, name := range names {
			fmt.Fprintf(w, "%d\t%s\t%d°", i+1, name, app.Store.Rotation(name))
			if long {
				details, err := app.Describe(name)
				if err != nil {
					fmt.Fprintf(w, "\t(unreadable: %s)", err)
				} else {
					fmt.Fprintf(w, "\t%s\t%dx%d", details.Format, details.Width, details.Height)
					if !details.CapturedAt.IsZero() {
						fmt.Fprintf(w, "\t%s", details.CapturedAt.Format("2006-01-02 15:04"))
					}
				}
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Copy image files into the album",
	Long: fmt.Sprintf(`Copy image files into the album, appending them to the display order.

Accepted types: %s. A file with the same name as an album image replaces it.`,
		strings.Join(domain.AcceptedExtensions, ", ")),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		failed := 0
		for _, file := range args {
			data, err := os.ReadFile(file)
			if err == nil {
				_, err = app.Upload(filepath.Base(file), data)
			}
			if err != nil {
				log.Printf("upload: %s", err)
				failed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d images\n", len(args)-failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d uploads failed", failed, len(args))
		}
		return nil
	},
}

var rotateCmd = &cobra.Command{
	Use:   "rotate <image> cw|ccw",
	Short: "Rotate an image a quarter turn",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		turn, err := domain.ParseTurn(args[1])
		if err != nil {
			return fmt.Errorf("%w: expected cw or ccw, got %q", err, args[1])
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		angle, err := app.Rotate(args[0], turn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d°\n", args[0], angle)
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <image> up|down",
	Short: "Swap an image with its neighbour in the display order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		direction, err := domain.ParseDirection(args[1])
		if err != nil {
			return fmt.Errorf("%w: expected up or down, got %q", err, args[1])
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Move(args[0], direction)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <image>...",
	Short: "Delete images and their metadata",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var errs []error
		for _, name := range args {
			if err := app.Delete(cmd.Context(), name); err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
		}
		return errors.Join(errs...)
	},
}

var deleteAlbumCmd = &cobra.Command{
	Use:   "delete-album",
	Short: "Remove the whole album directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to remove the album without --yes")
		}
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.DeleteAlbum(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Album removed")
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <image>",
	Short: "Write the display-ready version of an image",
	Long: `Write the display-ready version of an image: rotated by its stored angle and fitted
into the edit (thumbnail) or view bounding box. Use "-o -" to write PNG to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := album.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			stem := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			output = fmt.Sprintf("%s_%s.png", stem, mode)
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		img, err := app.RenderImage(args[0], mode)
		if err != nil {
			return fmt.Errorf("while rendering '%s': %w", args[0], err)
		}
		var w io.Writer = cmd.OutOrStdout()
		if output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := album.Encode(w, img, output); err != nil {
			return fmt.Errorf("while encoding '%s': %w", output, err)
		}
		if output != "-" {
			log.Printf("render: wrote %s", output)
		}
		return nil
	},
}

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Print the read-only link to the album",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		fmt.Fprintln(cmd.OutOrStdout(), app.ShareURL())
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the latest deletions recorded in the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		if app.Journal == nil {
			return fmt.Errorf("no journal configured, set 'journal' in the config or FOTOALBUM_JOURNAL")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		deletions, err := app.Journal.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, d := range deletions {
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.DeletedAt.Local().Format("2006-01-02 15:04:05"), d.AlbumID, d.Filename)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd, uploadCmd, rotateCmd, moveCmd, deleteCmd, deleteAlbumCmd, renderCmd, shareCmd, historyCmd)

	listCmd.Flags().BoolP("long", "l", false, "Show format, dimensions and capture time")
	deleteAlbumCmd.Flags().Bool("yes", false, "Confirm removing every image")
	renderCmd.Flags().StringP("mode", "m", string(album.ModeEdit), "Bounding box to fit into: edit or view")
	renderCmd.Flags().StringP("output", "o", "", "Output file (default <image>_<mode>.png, - for stdout)")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of deletions to show")
}
