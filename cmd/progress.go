package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/storypath/storypath-cli/internal/engine"
	"github.com/storypath/storypath-cli/internal/model"
	"github.com/storypath/storypath-cli/internal/refresh"
)

var progressCmd = &cobra.Command{
	Use:   "progress <project-id>",
	Short: "Show participant progress for a project",
	Args:  cobra.ExactArgs(1),
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

		state, err := e.Reconcile(cmd.Context(), projectID)
		if err != nil {
			return userFacing(err)
		}
		printProgress(os.Stdout, state.Progress)

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return nil
		}
		interval, _ := cmd.Flags().GetDuration("interval")
		return watchProgress(cmd.Context(), os.Stdout, e, coordinator, projectID, interval)
	},
}

// watchProgress reprints progress until ctx is cancelled. It recomputes on
// every refresh notification and additionally on each poll interval: scans
// submitted from other processes never reach the in-process coordinator, so
// the ticker is what picks them up. The notification carries only a version;
// state is always re-fetched.
func watchProgress(ctx context.Context, w io.Writer, e *engine.Engine, coord *refresh.Coordinator, projectID int, interval time.Duration) error {
	ch, cancel := coord.Subscribe()
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
		case <-ticker.C:
		}
		state, err := e.Reconcile(ctx, projectID)
		if err != nil {
			return userFacing(err)
		}
		printProgress(w, state.Progress)
	}
}

func printProgress(w io.Writer, p model.ParticipantProgress) {
	fmt.Fprintf(w, "%s: points %d/%d, locations %d/%d, %d participant(s) in project\n",
		p.ParticipantUsername, p.TotalPoints, p.TotalPossiblePoints,
		p.VisitedLocationCount, p.LocationCount, p.TotalParticipants)
}

func init() {
	progressCmd.Flags().Bool("watch", false, "keep running and reprint on refresh events")
	progressCmd.Flags().Duration("interval", 10*time.Second, "poll interval while watching")
	rootCmd.AddCommand(progressCmd)
}
