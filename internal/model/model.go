// Package model defines the domain types shared across the StoryPath client:
// projects, locations, tracking records and the derived participant progress.
// Field names and enum strings follow the backend's wire format exactly.
package model

// ParticipantScoring describes how a project scores its participants.
type ParticipantScoring string

const (
	ScoringNotScored        ParticipantScoring = "Not Scored"
	ScoringScannedQRCodes   ParticipantScoring = "Number of Scanned QR Codes"
	ScoringLocationsEntered ParticipantScoring = "Number of Locations Entered"
)

// HomescreenDisplay selects what a project's home screen surfaces before any
// location is unlocked: the initial clue, or the full location list.
type HomescreenDisplay string

const (
	DisplayInitialClue  HomescreenDisplay = "Display initial clue"
	DisplayAllLocations HomescreenDisplay = "Display all locations"
)

// LocationTrigger describes how a location may be unlocked.
type LocationTrigger string

const (
	TriggerEntry  LocationTrigger = "Location Entry"
	TriggerQRCode LocationTrigger = "QR Code"
	TriggerBoth   LocationTrigger = "Both Location Entry and QR Code"
)

// Project is a published adventure. Projects are fetched from the backend and
// never mutated by the client.
type Project struct {
	ID                 int                `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	IsPublished        bool               `json:"is_published"`
	ParticipantScoring ParticipantScoring `json:"participant_scoring"`
	Username           string             `json:"username"`
	Instructions       string             `json:"instructions"`
	InitialClue        string             `json:"initial_clue"`
	HomescreenDisplay  HomescreenDisplay  `json:"homescreen_display"`
}

// ShouldDisplayAllLocations reports whether every location should be visible
// regardless of unlock state. The home screen and the map must both call this
// so the two views can never disagree.
func (p Project) ShouldDisplayAllLocations() bool {
	return p.HomescreenDisplay == DisplayAllLocations
}

// Location is a point of interest within a project. LocationPosition holds
// the backend's raw "(lat,lng)" string; parsing is the codec package's job
// and a row that fails to parse is skipped by consumers, never fatal.
type Location struct {
	ID               int             `json:"id"`
	ProjectID        int             `json:"project_id"`
	LocationName     string          `json:"location_name"`
	LocationTrigger  LocationTrigger `json:"location_trigger"`
	LocationPosition string          `json:"location_position"`
	ScorePoints      int             `json:"score_points"`
	Clue             string          `json:"clue"`
	LocationContent  string          `json:"location_content"`
}

// Tracking is one append-only visit event: a participant unlocked a location.
// Username is the API credential owner (the row owner on the backend);
// ParticipantUsername is the acting participant. The backend enforces no
// uniqueness over (project, location, participant); idempotence is the
// engine's responsibility.
type Tracking struct {
	ID                  int    `json:"id,omitempty"`
	ProjectID           int    `json:"project_id"`
	LocationID          int    `json:"location_id"`
	Points              int    `json:"points"`
	Username            string `json:"username"`
	ParticipantUsername string `json:"participant_username"`
}

// ParticipantProgress is the derived unlock/score state for one participant
// in one project. It is recomputed from tracking rows on every pass and never
// persisted or cached.
type ParticipantProgress struct {
	ProjectID               int
	ParticipantUsername     string
	UnlockedLocationIDs     map[int]bool
	TotalPoints             int
	TotalPossiblePoints     int
	VisitedLocationCount    int
	LocationCount           int
	PerLocationParticipants map[int]int
	TotalParticipants       int
}

// Unlocked reports whether the participant holds a tracking record for the
// given location.
func (p *ParticipantProgress) Unlocked(locationID int) bool {
	return p.UnlockedLocationIDs[locationID]
}
