// Command gridslice cuts an image into a grid of tiles and bundles the
// selected tiles into a zip archive.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/PhantomInTheWire/grid-slicer/pkg/export"
	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
	"github.com/PhantomInTheWire/grid-slicer/pkg/preview"
	"github.com/PhantomInTheWire/grid-slicer/pkg/raster"
	"github.com/PhantomInTheWire/grid-slicer/pkg/session"
	"github.com/PhantomInTheWire/grid-slicer/pkg/storage"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("gridslice: ")

	rootCmd := &cobra.Command{
		Use:           "gridslice",
		Short:         "Slice an image into grid tiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(exportCmd(), previewCmd(), suggestCmd(), settingsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func exportCmd() *cobra.Command {
	var (
		g       gridFlags
		outDir  string
		useS3   bool
		opts    = exportOptionsFromEnv()
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "export <image>",
		Short: "Export grid cells as a zip of images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			s, err := g.state(cmd.Flags(), a)
			if err != nil {
				return err
			}

			var sink storage.Sink = storage.FileSink{Dir: outDir}
			if useS3 {
				s3Sink, err := storage.NewS3Sink(cmd.Context(), s3ConfigFromEnv())
				if err != nil {
					return err
				}
				s3Sink.Logger = log.Default()
				sink = s3Sink
			}
			if verbose {
				opts.Logger = log.Default()
			}
			return runExport(cmd.Context(), s, sink, opts)
		},
	}
	fs := cmd.Flags()
	g.register(fs)
	fs.StringVarP(&outDir, "out", "o", ".", "Directory the archive is written to")
	fs.BoolVar(&useS3, "s3", false, "Upload the archive to S3/MinIO (configured via MINIO_* env)")
	fs.Float64Var(&opts.ResolutionScale, "resolution-scale", opts.ResolutionScale, "Output resolution relative to the image")
	fs.Float64Var(&opts.MaxScale, "max-scale", opts.MaxScale, "Upper bound for --resolution-scale")
	fs.BoolVar(&opts.Strict, "strict", opts.Strict, "Fail the export when any cell fails to encode")
	fs.IntVarP(&opts.Workers, "workers", "w", opts.Workers, "Cells encoded concurrently")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Log pipeline details")
	return cmd
}

func runExport(ctx context.Context, s session.State, sink storage.Sink, opts export.Options) error {
	s, err := session.BeginExport(s)
	if err != nil {
		return err
	}

	last := -10
	res, err := export.New(sink, opts).Run(ctx, s.Request(), func(pct int) {
		s = session.ReportProgress(s, pct)
		if s.Progress/10 != last/10 {
			log.Printf("progress %d%%", s.Progress)
			last = s.Progress
		}
	})
	s = session.FinishExport(s, err)
	if s.LastError != nil {
		return fmt.Errorf("export failed: %w", s.LastError)
	}

	log.Printf("wrote %s with %d tiles", res.ArchiveName, len(res.Files))
	if len(res.Skipped) > 0 {
		log.Printf("skipped %d cells that failed to encode: %v", len(res.Skipped), res.Skipped)
	}
	return nil
}

func previewCmd() *cobra.Command {
	var (
		g       gridFlags
		outPath string
		maxSide int
	)
	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Render the grid overlay as an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			s, err := g.state(cmd.Flags(), a)
			if err != nil {
				return err
			}
			img, res, err := preview.Render(a, s.Settings, s.Selection, maxSide)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = export.BaseName(s.Settings.FilePrefix, a.Filename) + "_preview.png"
			}
			if err := imaging.Save(img, outPath); err != nil {
				return fmt.Errorf("saving preview: %w", err)
			}
			log.Printf("wrote %s (%dx%d at %.3gx)", outPath, img.Rect.Dx(), img.Rect.Dy(), res)
			return nil
		},
	}
	fs := cmd.Flags()
	g.register(fs)
	fs.StringVarP(&outPath, "out", "o", "", "Preview file (default: <name>_preview.png)")
	fs.IntVar(&maxSide, "max-side", 1024, "Longest preview side in pixels")
	return cmd
}

func suggestCmd() *cobra.Command {
	var crop string
	cmd := &cobra.Command{
		Use:   "suggest <image>",
		Short: "Print the suggested grid and cell sizes for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			vp := geometry.Viewport(a.Width, a.Height, geometry.CropMode(crop))
			rows, cols := geometry.SuggestGrid(vp.Width, vp.Height)
			w, h := geometry.SliceSize(vp, cols, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d, viewport %dx%d\n", a.Filename, a.Width, a.Height, vp.Width, vp.Height)
			fmt.Fprintf(cmd.OutOrStdout(), "suggested grid: %d rows x %d cols, cell %.1fx%.1f\n", rows, cols, w, h)
			return nil
		},
	}
	cmd.Flags().StringVar(&crop, "crop", string(geometry.CropOriginal), "Crop mode: original or square")
	return cmd
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage settings files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init <file.yaml>",
		Short: "Write a settings file with default values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := grid.SaveSettings(path, grid.DefaultSettings()); err != nil {
				return err
			}
			log.Printf("wrote %s", filepath.Clean(path))
			return nil
		},
	})
	return cmd
}
