package main

import (
	"fmt"
	"image"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/lewtec/enquadra/annotation"
	"github.com/lewtec/enquadra/internal/repository"
	"github.com/spf13/cobra"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <inputs...> <output>",
	Short: "Ingest folders of files into a flat folder of images.",
	Long: `Ingest folders of files that were extracted from somewhere and organize them in a flat hierarchy of PNG images named after their hash.
With --database every image is also registered with its dimensions.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(2)(cmd, args); err != nil {
			return err
		}
		inputs := args[0 : len(args)-1]
		output := args[len(args)-1]
		for i, input := range inputs {
			fileInfo, err := os.Stat(input)
			if err != nil {
				return fmt.Errorf("on %dth argument: %w", i+1, err)
			}
			if !fileInfo.IsDir() {
				return fmt.Errorf("on %dth argument: must be a directory", i+1)
			}
		}
		return os.MkdirAll(output, 0o777)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs := args[0 : len(args)-1]
		output := args[len(args)-1]
		jobs, _ := cmd.Flags().GetUint("jobs")
		databaseFile, _ := cmd.Flags().GetString("database")
		if jobs == 0 {
			jobs = 1
		}

		outFS, err := annotation.HostDir(output)
		if err != nil {
			return err
		}

		var images *repository.ImageRepository
		if databaseFile != "" {
			db, err := annotation.GetDatabase(databaseFile)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			images = repository.NewImageRepository(db)
		}

		crawled := make(chan image.Image, 10) // pipeline
		ingested := make(chan *annotation.IngestedImage, 10)

		var wg sync.WaitGroup
		ingestWorker := func(queue chan image.Image) {
			defer wg.Done()
			for img := range queue {
				res, err := annotation.IngestImage(outFS, img, ".")
				if err != nil {
					log.Printf("Ingesting image error: %s", err)
					continue
				}
				ingested <- res
			}
		}
		for i := uint(0); i < jobs; i++ {
			wg.Add(1)
			go ingestWorker(crawled)
		}

		go func() {
			defer close(crawled)
			for _, input := range inputs {
				if err := crawlImages(input, crawled); err != nil {
					log.Printf("ingest: while crawling %s: %s", input, err)
				}
			}
		}()
		go func() {
			wg.Wait()
			close(ingested)
		}()

		count := 0
		var firstErr error
		for res := range ingested {
			count++
			if images == nil || firstErr != nil {
				continue
			}
			if _, err := images.Create(cmd.Context(), res.SHA256, res.Filename, res.Width, res.Height); err != nil {
				firstErr = fmt.Errorf("failed to register image %s: %w", res.SHA256, err)
			}
		}
		if firstErr != nil {
			return firstErr
		}
		log.Printf("ingest: %d images written to %s", count, output)
		fmt.Fprintf(cmd.OutOrStdout(), "%d images ingested\n", count)
		return nil
	},
}

// crawlImages decodes every image below input and sends it to out. Files that
// are not images are skipped.
func crawlImages(input string, out chan<- image.Image) error {
	inFS, err := annotation.HostDir(input)
	if err != nil {
		return err
	}
	return filepath.WalkDir(input, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(input, path)
		if err != nil {
			return nil
		}
		img, err := annotation.DecodeImage(inFS, filepath.ToSlash(rel))
		if err != nil {
			return nil
		}
		log.Printf("found image '%s'", path)
		out <- img
		return nil
	})
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().UintP("jobs", "j", 1, "Amount of concurrent ingestors")
	ingestCmd.Flags().StringP("database", "d", "", "Register the ingested images in this database")
}
