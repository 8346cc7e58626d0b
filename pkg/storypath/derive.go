package storypath

import "github.com/storypath/storypath-cli/internal/model"

// Derived read helpers over fetched tracking rows. The backend has no
// aggregate endpoints, so distinct/sum queries are computed client-side from
// the same rows a reconciliation pass already fetched.

// CountUniqueParticipants counts distinct participant usernames across the
// project's tracking rows.
func CountUniqueParticipants(tracking []model.Tracking) int {
	seen := make(map[string]bool, len(tracking))
	for _, t := range tracking {
		seen[t.ParticipantUsername] = true
	}
	return len(seen)
}

// CountUniqueParticipantsPerLocation counts, per location, the distinct
// participants holding at least one tracking row there. A participant who
// visited a location several times is counted once.
func CountUniqueParticipantsPerLocation(tracking []model.Tracking) map[int]int {
	perLocation := make(map[int]map[string]bool)
	for _, t := range tracking {
		if perLocation[t.LocationID] == nil {
			perLocation[t.LocationID] = make(map[string]bool)
		}
		perLocation[t.LocationID][t.ParticipantUsername] = true
	}

	counts := make(map[int]int, len(perLocation))
	for id, participants := range perLocation {
		counts[id] = len(participants)
	}
	return counts
}

// SumPoints totals the points on the given participant's tracking rows.
// Rows belonging to other participants never contribute.
func SumPoints(tracking []model.Tracking, participant string) int {
	total := 0
	for _, t := range tracking {
		if t.ParticipantUsername == participant {
			total += t.Points
		}
	}
	return total
}

// UniqueVisitedLocationIDs returns the distinct set of locations the given
// participant holds tracking rows for.
func UniqueVisitedLocationIDs(tracking []model.Tracking, participant string) map[int]bool {
	visited := make(map[int]bool)
	for _, t := range tracking {
		if t.ParticipantUsername == participant {
			visited[t.LocationID] = true
		}
	}
	return visited
}

// TotalPossiblePoints sums score_points across all of a project's locations.
func TotalPossiblePoints(locations []model.Location) int {
	total := 0
	for _, loc := range locations {
		total += loc.ScorePoints
	}
	return total
}
