package events

import "errors"

// Sentinel errors for the events service layer.
var (
	ErrNotFound          = errors.New("event not found")
	ErrRSVPNotFound      = errors.New("rsvp not found")
	ErrNotEditable       = errors.New("only draft or published events can be edited")
	ErrNotDraft          = errors.New("only draft events can be deleted")
	ErrNotOpen           = errors.New("event is not open for rsvps")
	ErrInvalidTransition = errors.New("invalid status transition")
)
