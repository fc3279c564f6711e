package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ircbot/pkg/notes"
)

var wipeConfirmed bool

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Inspect or clear stored notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every stored note, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openNotes()
		if err != nil {
			return err
		}
		defer store.Close()

		stored, err := store.Read(cmd.Context())
		if err != nil {
			return fmt.Errorf("read notes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(stored) == 0 {
			fmt.Fprintln(out, "No notes stored")
			return nil
		}
		for _, note := range stored {
			fmt.Fprintln(out, notes.FormatLine(note))
		}
		return nil
	},
}

var notesWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Remove every stored note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wipeConfirmed {
			return errors.New("refusing to wipe notes without --yes")
		}

		store, err := openNotes()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Wipe(cmd.Context()); err != nil {
			return fmt.Errorf("wipe notes: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Notes wiped")
		return nil
	},
}

func init() {
	notesWipeCmd.Flags().BoolVarP(&wipeConfirmed, "yes", "y", false, "confirm removal of all notes")
	notesCmd.AddCommand(notesListCmd, notesWipeCmd)
	rootCmd.AddCommand(notesCmd)
}

func openNotes() (notes.Store, error) {
	cfg, dataDir, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := notes.Open(cfg.Notes, dataDir)
	if err != nil {
		return nil, fmt.Errorf("open notes: %w", err)
	}
	return store, nil
}
