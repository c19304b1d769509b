package main

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "enquadra",
	Short: "Draw and manage bounding boxes over images",
	Long: strings.TrimSpace(`
Bounding box annotation engine: ingest images, replay editing sessions through
the interaction engine, store the resulting boxes and export them.
    `),
	SilenceUsage: true,
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing command: %v", err)
		os.Exit(1)
	}
}
