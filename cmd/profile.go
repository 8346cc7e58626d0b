package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storypath/storypath-cli/internal/identity"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the local participant identity",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current participant username",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newIdentityStore()
		if err != nil {
			return err
		}
		defer store.Close()

		username, err := store.Participant(cmd.Context())
		if errors.Is(err, identity.ErrNoParticipant) {
			fmt.Println("No participant set. Run \"storypath profile set <username>\" first.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(username)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Set the participant username used for tracking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newIdentityStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SetParticipant(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Participant set to %q\n", args[0])
		return nil
	},
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored participant identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newIdentityStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Participant cleared")
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd, profileSetCmd, profileClearCmd)
	rootCmd.AddCommand(profileCmd)
}
