package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/lewtec/enquadra/annotation"
	"github.com/spf13/cobra"
)

func PrintQuery(ctx context.Context, w io.Writer, db *sql.Tx, query string, args ...interface{}) error {
	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	result, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return err
	}
	defer result.Close()
	columns, err := result.Columns()
	if err != nil {
		return err
	}
	if len(columns) > 1 {
		fmt.Fprintln(w, strings.Join(columns, "\t"))
	}
	pointers := make([]interface{}, len(columns))
	container := make([]sql.NullString, len(columns))
	for i := 0; i < len(columns); i++ {
		pointers[i] = &container[i]
	}
	values := make([]string, len(columns))
	for result.Next() {
		if err := result.Scan(pointers...); err != nil {
			return err
		}
		for i, v := range container {
			values[i] = v.String
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	return result.Err()
}

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [flags] database [label]",
	Short: "Queries the annotation database",
	Long: `Query images and annotations from the database.

Examples:
  # List images with their annotation counts
  enquadra query annotations.db

  # List the labels in use
  enquadra query --labels annotations.db

  # List every box carrying the label "car"
  enquadra query annotations.db car

  # List the boxes of one image
  enquadra query --image 3fa4... annotations.db`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, _ := cmd.Flags().GetBool("labels")
		imageSHA, _ := cmd.Flags().GetString("image")

		db, err := annotation.GetDatabase(args[0])
		if err != nil {
			return err
		}
		defer db.Close()

		tx, err := db.BeginTx(cmd.Context(), &sql.TxOptions{})
		if err != nil {
			return err
		}
		defer tx.Rollback()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		const boxColumns = "images.filename, annotations.position, annotations.label_name, annotations.x, annotations.y, annotations.width, annotations.height"
		switch {
		case labels:
			return PrintQuery(ctx, out, tx, "SELECT label_name, COUNT(*) AS annotations FROM annotations GROUP BY label_name ORDER BY label_name")
		case imageSHA != "":
			return PrintQuery(ctx, out, tx, "SELECT "+boxColumns+" FROM annotations JOIN images ON annotations.image_sha256 = images.sha256 WHERE images.sha256 = ? ORDER BY annotations.position", imageSHA)
		case len(args) == 2:
			return PrintQuery(ctx, out, tx, "SELECT "+boxColumns+" FROM annotations JOIN images ON annotations.image_sha256 = images.sha256 WHERE annotations.label_name = ? ORDER BY images.filename, annotations.position", args[1])
		}
		return PrintQuery(ctx, out, tx, `
SELECT images.sha256, images.filename, images.width, images.height, COUNT(annotations.id) AS annotations
FROM images LEFT JOIN annotations ON annotations.image_sha256 = images.sha256
GROUP BY images.sha256 ORDER BY images.filename`)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().BoolP("labels", "l", false, "List labels and how many boxes use them")
	queryCmd.Flags().StringP("image", "i", "", "List the boxes of the image with this hash")
}
