package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/storypath/storypath-cli/internal/codec"
	"github.com/storypath/storypath-cli/internal/engine"
	"github.com/storypath/storypath-cli/internal/geofence"
	"github.com/storypath/storypath-cli/internal/model"
)

var watchCmd = &cobra.Command{
	Use:   "watch <project-id>",
	Short: "Evaluate live positions against the project's geofences",
	Long: "Read positions as \"lat,lng\" lines from stdin (a GPS feed stand-in), apply the " +
		"subscription filter and print marker state for every visible location. " +
		"With --geojson each update prints a FeatureCollection instead.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}
		asGeoJSON, _ := cmd.Flags().GetBool("geojson")

		e, store, err := newEngine()
		if err != nil {
			return err
		}
		defer store.Close()

		state, err := e.Reconcile(cmd.Context(), projectID)
		if err != nil {
			return userFacing(err)
		}
		visible := engine.VisibleLocations(state.Project, state.Locations, state.Progress)

		ctx := cmd.Context()
		src := make(chan codec.Coordinate)
		go func() {
			defer close(src)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				coord, err := codec.ParseLocationPosition("(" + scanner.Text() + ")")
				if err != nil {
					fmt.Fprintf(os.Stderr, "skipping unparseable position %q\n", scanner.Text())
					continue
				}
				select {
				case src <- coord:
				case <-ctx.Done():
					return
				}
			}
		}()

		watcher := geofence.NewWatcher(geofence.SubscriptionConfig{
			MinInterval:       rate.Every(time.Duration(cfg.Geo.MinIntervalSecs) * time.Second),
			MinDistanceMeters: cfg.Geo.MinDistanceMeters,
		}, zap.L())
		evaluator := geofence.NewEvaluator(zap.L())

		for pos := range watcher.Watch(ctx, src) {
			markers := evaluator.Evaluate(pos, visible, state.Progress)
			if asGeoJSON {
				data, err := geofence.GeoJSON(pos, markers)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				continue
			}
			printMarkers(pos, markers)
		}
		return nil
	},
}

func printMarkers(pos codec.Coordinate, markers []geofence.Marker) {
	fmt.Printf("position (%.5f,%.5f)\n", pos.Latitude, pos.Longitude)
	for _, m := range markers {
		status := "locked"
		if m.Unlocked {
			status = "unlocked"
		}
		fmt.Printf("  %-20s %8.0fm  %s", m.Location.LocationName, m.DistanceMeters, status)
		if m.Inside {
			fmt.Print("  [inside fence]")
			if !m.Unlocked && m.Location.LocationTrigger != model.TriggerQRCode {
				fmt.Print(" (entry trigger: unlock requires a scan for now)")
			}
		}
		fmt.Println()
	}
}

func init() {
	watchCmd.Flags().Bool("geojson", false, "print GeoJSON FeatureCollections")
	rootCmd.AddCommand(watchCmd)
}
