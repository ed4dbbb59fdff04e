package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <file>",
	Short: "Move a file to the Trash",
	Long: `Ask the media server to move FILE to the Trash.

FILE is the path the server uses for it, as shown in the viewer title.

Examples:
  mediaview delete vacation/beach.jpg
  mediaview delete vacation/beach.jpg --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]

		if !deleteYes {
			ok, err := confirm(fmt.Sprintf("Move %s to the Trash?", file))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.DeleteFile(cmd.Context(), file); err != nil {
			return fmt.Errorf("delete %s: %w", file, err)
		}
		fmt.Printf("%s moved to Trash.\n", file)
		return nil
	},
}

// errNotInteractive is returned when a confirmation is needed but stdin
// is not a terminal.
var errNotInteractive = errors.New("confirmation needs an interactive terminal; use --yes")

// confirm asks a yes/no question on the terminal. Answers default to no.
func confirm(title string) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return false, errNotInteractive
	}
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}
