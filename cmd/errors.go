package main

import (
	"errors"
	"fmt"

	"github.com/storypath/storypath-cli/internal/codec"
	"github.com/storypath/storypath-cli/internal/engine"
	"github.com/storypath/storypath-cli/internal/identity"
	"github.com/storypath/storypath-cli/pkg/storypath"
)

// userFacing translates typed component errors into the messages the app
// shows. Nothing here is fatal to the process; every failure is recoverable
// by retrying, rescanning or navigating back.
func userFacing(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, codec.ErrInvalidPayload):
		return errors.New("Invalid QR code format")
	case errors.Is(err, codec.ErrMalformedCoordinate):
		return errors.New("This location has an invalid position")
	case errors.Is(err, engine.ErrAlreadyVisited):
		return errors.New("You have already visited this location!")
	case errors.Is(err, engine.ErrScanInFlight):
		return errors.New("A scan is already being submitted, try again in a moment")
	case errors.Is(err, engine.ErrLocationNotFound):
		return errors.New("This QR code does not belong to the current project")
	case errors.Is(err, storypath.ErrProjectNotFound):
		return errors.New("Project not found, it may have been unpublished")
	case errors.Is(err, identity.ErrNoParticipant):
		return errors.New("No participant profile set. Run: storypath profile set <username>")
	case storypath.IsAuthError(err):
		return errors.New("The API rejected your credentials, check STORYPATH_API_JWT")
	case storypath.IsNetworkError(err):
		return fmt.Errorf("Network error, please try again: %v", err)
	default:
		return err
	}
}
