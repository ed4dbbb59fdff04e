package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every tag the server knows",
	Long: `List every tag known to the media server, one per line.

Examples:
  mediaview tags
  mediaview tags --server http://nas.local:8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		tags, err := client.AllTags(cmd.Context())
		if err != nil {
			return fmt.Errorf("list tags: %w", err)
		}
		printTags(os.Stdout, tags)
		return nil
	},
}

func printTags(w io.Writer, tags []string) {
	if len(tags) == 0 {
		fmt.Fprintln(w, "No tags found.")
		return
	}
	for _, t := range tags {
		fmt.Fprintln(w, t)
	}
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
