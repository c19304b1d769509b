package main

import (
	"fmt"
	"io"

	"github.com/lewtec/enquadra/annotation"
	"github.com/lewtec/enquadra/internal/repository"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <image>",
	Short: "Export the stored annotations of an image",
	Long: `Export the annotations stored for an image, looked up by hash or filename.

Examples:
  enquadra export -d annotations.db 3fa4...
  enquadra export -d annotations.db --format html --config config.yaml cat.png > report.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseFile, _ := cmd.Flags().GetString("database")
		format, _ := cmd.Flags().GetString("format")
		configFile, _ := cmd.Flags().GetString("config")
		if databaseFile == "" {
			return fmt.Errorf("--database flag is required")
		}

		var config *annotation.Config
		if configFile != "" {
			var err error
			if config, err = annotation.LoadConfig(configFile); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}

		db, err := annotation.GetDatabase(databaseFile)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		images := repository.NewImageRepository(db)
		img, err := images.GetBySHA256(cmd.Context(), args[0])
		if err == nil && img == nil {
			img, err = images.GetByFilename(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		if img == nil {
			return fmt.Errorf("image %s not found", args[0])
		}

		anns, err := annotation.LoadAnnotations(cmd.Context(), db, img.SHA256)
		if err != nil {
			return err
		}
		return writeExport(cmd.OutOrStdout(), format, annotation.NewExport(img, anns), config)
	},
}

func writeExport(w io.Writer, format string, export annotation.Export, config *annotation.Config) error {
	switch format {
	case "yaml", "":
		return export.WriteYAML(w)
	case "markdown", "md":
		_, err := io.WriteString(w, export.Markdown(config))
		return err
	case "html":
		_, err := io.WriteString(w, export.HTML(config))
		return err
	}
	return fmt.Errorf("unknown format %q, expected yaml, markdown or html", format)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("database", "d", "", "Database file path")
	exportCmd.Flags().StringP("format", "f", "yaml", "Output format: yaml, markdown or html")
	exportCmd.Flags().StringP("config", "c", "", "Config file used for the report description and palette")
}
