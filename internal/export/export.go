// Package export writes a project progress report as a spreadsheet: a
// leaderboard of participants and a per-location visit summary.
package export

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/storypath/storypath-cli/internal/model"
	"github.com/storypath/storypath-cli/pkg/storypath"
)

// participantRow is one leaderboard entry.
type participantRow struct {
	Username string
	Points   int
	Visited  int
}

// WriteProjectReport writes a two-sheet report for the project: Leaderboard
// (participants sorted by points, ties by username) and Locations (points on
// offer and distinct visitors per location).
func WriteProjectReport(path string, project model.Project, locations []model.Location, tracking []model.Tracking) error {
	file := xlsx.NewFile()
	printer := message.NewPrinter(language.English)

	if err := writeLeaderboard(file, printer, project, tracking); err != nil {
		return err
	}
	if err := writeLocations(file, tracking, locations); err != nil {
		return err
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func writeLeaderboard(file *xlsx.File, printer *message.Printer, project model.Project, tracking []model.Tracking) error {
	sheet, err := file.AddSheet("Leaderboard")
	if err != nil {
		return eris.Wrap(err, "export: add leaderboard sheet")
	}

	title := sheet.AddRow()
	title.AddCell().Value = project.Title
	title.AddCell().Value = string(project.ParticipantScoring)

	header := sheet.AddRow()
	for _, h := range []string{"Participant", "Points", "Locations Visited"} {
		header.AddCell().Value = h
	}

	for _, entry := range leaderboard(tracking) {
		row := sheet.AddRow()
		row.AddCell().Value = entry.Username
		row.AddCell().Value = printer.Sprintf("%d", entry.Points)
		row.AddCell().SetInt(entry.Visited)
	}
	return nil
}

func writeLocations(file *xlsx.File, tracking []model.Tracking, locations []model.Location) error {
	sheet, err := file.AddSheet("Locations")
	if err != nil {
		return eris.Wrap(err, "export: add locations sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Location", "Points", "Participants Visited"} {
		header.AddCell().Value = h
	}

	visitors := storypath.CountUniqueParticipantsPerLocation(tracking)
	for _, loc := range locations {
		row := sheet.AddRow()
		row.AddCell().Value = loc.LocationName
		row.AddCell().SetInt(loc.ScorePoints)
		row.AddCell().SetInt(visitors[loc.ID])
	}
	return nil
}

// leaderboard folds tracking rows into sorted participant entries.
func leaderboard(tracking []model.Tracking) []participantRow {
	points := make(map[string]int)
	visited := make(map[string]map[int]bool)
	for _, t := range tracking {
		points[t.ParticipantUsername] += t.Points
		if visited[t.ParticipantUsername] == nil {
			visited[t.ParticipantUsername] = make(map[int]bool)
		}
		visited[t.ParticipantUsername][t.LocationID] = true
	}

	rows := make([]participantRow, 0, len(points))
	for username, pts := range points {
		rows = append(rows, participantRow{
			Username: username,
			Points:   pts,
			Visited:  len(visited[username]),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Username < rows[j].Username
	})
	return rows
}
