package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/lewtec/enquadra/annotation"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init <folder>",
	Short: "Initialize a new annotation project",
	Long: `Initialize a new annotation project by creating:
- A sample configuration file (config.yaml)
- A migrated SQLite database (annotations.db)
- An images directory for the ingest command

Example:
  enquadra init ./project`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := args[0]
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return fmt.Errorf("failed to create project folder: %w", err)
		}
		configFile := filepath.Join(folder, "config.yaml")
		databaseFile := filepath.Join(folder, "annotations.db")
		imagesDir := filepath.Join(folder, "images")

		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			log.Printf("Creating default config: %s", configFile)
			if err := os.WriteFile(configFile, []byte(annotation.SampleConfig), 0o644); err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
		} else {
			log.Printf("Config file already exists: %s", configFile)
		}

		if _, err := os.Stat(databaseFile); os.IsNotExist(err) {
			log.Printf("Creating empty database: %s", databaseFile)
		}
		db, err := annotation.GetDatabase(databaseFile)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer db.Close()

		if _, err := os.Stat(imagesDir); os.IsNotExist(err) {
			log.Printf("Creating images directory: %s", imagesDir)
			if err := os.MkdirAll(imagesDir, 0o755); err != nil {
				return fmt.Errorf("failed to create images directory: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Initialization complete!")
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  1. Review and customize your config file:", configFile)
		fmt.Fprintf(out, "  2. enquadra ingest <folder> %s --database %s\n", imagesDir, databaseFile)
		fmt.Fprintf(out, "  3. enquadra replay session.yaml --config %s --database %s\n", configFile, databaseFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
