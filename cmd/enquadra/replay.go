package main

import (
	"fmt"
	"image/png"
	"log"
	"path/filepath"
	"strings"

	"github.com/lewtec/enquadra/annotation"
	"github.com/lewtec/enquadra/internal/editor"
	"github.com/lewtec/enquadra/internal/render"
	"github.com/spf13/cobra"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay an editing session through the annotation engine",
	Long: `Replay a scripted editing session (pointer, wheel and key events) against an image and print the resulting state.

The image is taken from the script or --image and is resolved relative to the script folder unless it is an http(s) URL.

Example:
  enquadra replay session.yaml --config config.yaml --render out.png --database annotations.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		imageURL, _ := cmd.Flags().GetString("image")
		renderFile, _ := cmd.Flags().GetString("render")
		overlay, _ := cmd.Flags().GetBool("overlay")
		databaseFile, _ := cmd.Flags().GetString("database")
		loadStored, _ := cmd.Flags().GetBool("load")

		config, err := annotation.ParseConfig(strings.NewReader(""))
		if configFile != "" {
			config, err = annotation.LoadConfig(configFile)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		scriptFS, scriptName, err := annotation.HostFile(args[0])
		if err != nil {
			return err
		}
		f, err := scriptFS.Open(scriptName)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		script, err := annotation.ParseScript(f)
		f.Close()
		if err != nil {
			return err
		}
		if imageURL == "" {
			imageURL = script.Image
		}
		if imageURL == "" {
			return fmt.Errorf("no image given in the script or with --image")
		}

		loader := annotation.NewLoader(scriptFS)
		log.Printf("replay: waiting for %s", imageURL)
		var res annotation.LoadResult
		select {
		case res = <-loader.Request(cmd.Context(), imageURL):
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}

		var presenters []render.Presenter
		var raster *render.Raster
		if renderFile != "" && res.Err == nil {
			raster = render.NewRaster(res.Image.Width, res.Image.Height)
			presenters = append(presenters, raster)
		}
		overlayPresenter := &render.Overlay{}
		if overlay {
			presenters = append(presenters, overlayPresenter)
		}

		ed := editor.New(config.Options(), presenters...)
		res.ApplyTo(ed)
		if err := ed.ImageError(); err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}

		if databaseFile != "" && loadStored {
			db, err := annotation.GetDatabase(databaseFile)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			stored, err := annotation.LoadAnnotations(cmd.Context(), db, res.Image.SHA256)
			db.Close()
			if err != nil {
				return err
			}
			log.Printf("replay: loaded %d stored annotations", len(stored))
			ed.Load(stored)
		}

		summary, err := annotation.Replay(ed, script)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, summary.String())
		for _, a := range ed.Records() {
			label := a.LabelName
			if label == "" {
				label = "-"
			}
			fmt.Fprintf(out, "%s\t%s\t%g\t%g\t%g\t%g\n", a.Key(), label, a.X, a.Y, a.Width, a.Height)
		}

		if raster != nil {
			dir, name, err := annotation.HostFile(renderFile)
			if err != nil {
				return err
			}
			w, err := dir.Create(name)
			if err != nil {
				return fmt.Errorf("failed to create render output: %w", err)
			}
			if err := png.Encode(w, raster.Image()); err != nil {
				w.Close()
				return fmt.Errorf("failed to encode render output: %w", err)
			}
			if err := w.Close(); err != nil {
				return err
			}
			log.Printf("replay: frame written to %s", renderFile)
		}
		if overlay {
			if err := overlayPresenter.WriteJSON(out); err != nil {
				return err
			}
		}

		if databaseFile != "" {
			db, err := annotation.GetDatabase(databaseFile)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			ids, err := annotation.SubmitAnnotations(cmd.Context(), db, res.Image, filepath.Base(imageURL), ed.Records())
			if err != nil {
				return err
			}
			ed.MarkSubmitted(ids)
			fmt.Fprintf(out, "submitted %d annotations for %s\n", len(ids), res.Image.SHA256)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringP("config", "c", "", "Config file (defaults apply when omitted)")
	replayCmd.Flags().StringP("image", "i", "", "Image path or URL, overriding the script")
	replayCmd.Flags().StringP("render", "r", "", "Write the last frame as a PNG")
	replayCmd.Flags().Bool("overlay", false, "Print the overlay elements of the last frame as JSON")
	replayCmd.Flags().StringP("database", "d", "", "Submit the resulting annotations to this database")
	replayCmd.Flags().Bool("load", false, "Start from the annotations stored in --database")
}
