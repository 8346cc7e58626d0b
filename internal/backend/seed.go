package backend

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/storypath/storypath-cli/internal/codec"
	"github.com/storypath/storypath-cli/internal/model"
)

// SeedFile is the YAML fixture format for the dev backend: projects with
// nested locations.
type SeedFile struct {
	Projects []SeedProject `yaml:"projects"`
}

// SeedProject is one project fixture.
type SeedProject struct {
	Title              string         `yaml:"title"`
	Description        string         `yaml:"description"`
	IsPublished        bool           `yaml:"is_published"`
	ParticipantScoring string         `yaml:"participant_scoring"`
	Username           string         `yaml:"username"`
	Instructions       string         `yaml:"instructions"`
	InitialClue        string         `yaml:"initial_clue"`
	HomescreenDisplay  string         `yaml:"homescreen_display"`
	Locations          []SeedLocation `yaml:"locations"`
}

// SeedLocation is one location fixture.
type SeedLocation struct {
	Name     string `yaml:"name"`
	Trigger  string `yaml:"trigger"`
	Position string `yaml:"position"`
	Points   int    `yaml:"points"`
	Clue     string `yaml:"clue"`
	Content  string `yaml:"content"`
}

// Seed loads fixtures into the store. Location positions are validated up
// front so a bad fixture fails the seed instead of producing rows the client
// will skip.
func Seed(ctx context.Context, store Store, r io.Reader) (projects, locations int, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, 0, eris.Wrap(err, "backend: read seed file")
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, 0, eris.Wrap(err, "backend: parse seed file")
	}

	for _, sp := range file.Projects {
		if sp.Title == "" {
			return projects, locations, eris.New("backend: seed project missing title")
		}

		scoring := model.ParticipantScoring(sp.ParticipantScoring)
		if scoring == "" {
			scoring = model.ScoringNotScored
		}
		display := model.HomescreenDisplay(sp.HomescreenDisplay)
		if display == "" {
			display = model.DisplayInitialClue
		}

		projectID, err := store.InsertProject(ctx, model.Project{
			Title:              sp.Title,
			Description:        sp.Description,
			IsPublished:        sp.IsPublished,
			ParticipantScoring: scoring,
			Username:           sp.Username,
			Instructions:       sp.Instructions,
			InitialClue:        sp.InitialClue,
			HomescreenDisplay:  display,
		})
		if err != nil {
			return projects, locations, err
		}
		projects++

		for _, sl := range sp.Locations {
			if _, err := codec.ParseLocationPosition(sl.Position); err != nil {
				return projects, locations, eris.Wrapf(err, "backend: seed location %q", sl.Name)
			}

			trigger := model.LocationTrigger(sl.Trigger)
			if trigger == "" {
				trigger = model.TriggerQRCode
			}

			if _, err := store.InsertLocation(ctx, model.Location{
				ProjectID:        projectID,
				LocationName:     sl.Name,
				LocationTrigger:  trigger,
				LocationPosition: sl.Position,
				ScorePoints:      sl.Points,
				Clue:             sl.Clue,
				LocationContent:  sl.Content,
			}); err != nil {
				return projects, locations, err
			}
			locations++
		}
	}

	return projects, locations, nil
}
