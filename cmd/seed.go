package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storypath/storypath-cli/internal/backend"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load projects and locations into the development backend",
	Long: "Load a YAML seed file into the backend database. A .shp file is imported " +
		"as locations for an existing project instead; pass --project and --points " +
		"to control the target.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openBackendStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		if strings.HasSuffix(args[0], ".shp") {
			projectID, _ := cmd.Flags().GetInt("project")
			points, _ := cmd.Flags().GetInt("points")
			if projectID == 0 {
				return fmt.Errorf("--project is required when importing a shapefile")
			}
			n, err := backend.ImportShapefile(cmd.Context(), store, args[0], projectID, points, zap.L())
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d location(s) into project %d\n", n, projectID)
			return nil
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		projects, locations, err := backend.Seed(cmd.Context(), store, f)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d project(s) and %d location(s)\n", projects, locations)
		return nil
	},
}

func init() {
	seedCmd.Flags().Int("project", 0, "project id to attach shapefile locations to")
	seedCmd.Flags().Int("points", 10, "score points for each imported location")
	rootCmd.AddCommand(seedCmd)
}
