package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <project-id> <payload>",
	Short: "Submit a decoded QR payload",
	Long:  "Validate a scanned QR payload and record the visit, e.g.: storypath scan 2 \"location_id:4,project_id:2\"",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}

		e, store, err := newEngine()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := e.SubmitScan(cmd.Context(), projectID, args[1])
		if err != nil {
			return userFacing(err)
		}

		fmt.Printf("Unlocked %q (+%d points)\n", result.Location.LocationName, result.PointsAwarded)
		if result.Location.Clue != "" {
			fmt.Printf("Next clue: %s\n", result.Location.Clue)
		}
		return nil
	},
}

func init() { rootCmd.AddCommand(scanCmd) }
