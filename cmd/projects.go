package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/storypath/storypath-cli/internal/engine"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List published projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		projects, err := newClient().ListPublishedProjects(cmd.Context())
		if err != nil {
			return userFacing(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSCORING\tDESCRIPTION")
		for _, p := range projects {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Title, p.ParticipantScoring, p.Description)
		}
		return w.Flush()
	},
}

var projectCmd = &cobra.Command{
	Use:   "project <id>",
	Short: "Show one project with clue or location list per its display mode",
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

		fmt.Printf("%s\n\n%s\n\n", state.Project.Title, state.Project.Instructions)
		fmt.Printf("Points: %d/%d   Locations: %d/%d   Participants: %d\n\n",
			state.Progress.TotalPoints, state.Progress.TotalPossiblePoints,
			state.Progress.VisitedLocationCount, state.Progress.LocationCount,
			state.Progress.TotalParticipants)

		visible := engine.VisibleLocations(state.Project, state.Locations, state.Progress)
		if !state.Project.ShouldDisplayAllLocations() && len(visible) == 0 {
			fmt.Printf("Initial clue: %s\n", state.Project.InitialClue)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPOINTS\tUNLOCKED\tVISITORS")
		for _, loc := range visible {
			fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%d\n",
				loc.ID, loc.LocationName, loc.ScorePoints,
				state.Progress.Unlocked(loc.ID),
				state.Progress.PerLocationParticipants[loc.ID])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(projectCmd)
}
