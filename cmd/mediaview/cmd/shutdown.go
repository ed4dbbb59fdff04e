package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wesm/mediaview/internal/remote"
)

var shutdownYes bool

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Shut down the media server",
	Long: `Ask the media server to exit. A server that is already unreachable is
reported as stopped rather than as an error.

Examples:
  mediaview shutdown
  mediaview shutdown --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		if !shutdownYes {
			ok, err := confirm(fmt.Sprintf("Shut down the server at %s?", client.BaseURL()))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		err = client.Shutdown(cmd.Context())
		switch {
		case remote.IsUnreachable(err):
			fmt.Println("Server already stopped.")
			return nil
		case err != nil:
			return fmt.Errorf("shut down server: %w", err)
		}
		fmt.Println("Server shutting down...")
		return nil
	},
}

func init() {
	shutdownCmd.Flags().BoolVarP(&shutdownYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(shutdownCmd)
}
