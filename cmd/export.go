package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/storypath/storypath-cli/internal/export"
	"github.com/storypath/storypath-cli/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Write an xlsx report with the project leaderboard and location stats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = fmt.Sprintf("project-%d.xlsx", projectID)
		}

		client := newClient()

		var (
			project   *model.Project
			locations []model.Location
			tracking  []model.Tracking
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			project, err = client.GetProject(ctx, projectID)
			return err
		})
		g.Go(func() error {
			var err error
			locations, err = client.ListLocations(ctx, projectID)
			return err
		})
		g.Go(func() error {
			var err error
			tracking, err = client.ListTracking(ctx, projectID)
			return err
		})
		if err := g.Wait(); err != nil {
			return userFacing(err)
		}

		if err := export.WriteProjectReport(out, *project, locations, tracking); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "", "output path (default project-<id>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
