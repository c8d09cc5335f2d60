package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session matches an id or code.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrPlayerNotFound is returned when a player id is absent from a session.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrQuestionNotFound indicates an index outside the content tree.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrPackNotFound indicates the content pack could not be loaded.
	ErrPackNotFound = errors.New("content pack not found")
	// ErrUnknownFormat is returned when a format tag has no registered schema.
	ErrUnknownFormat = errors.New("unknown game format")
	// ErrContentNotLoaded is returned when a session has no content tree yet.
	ErrContentNotLoaded = errors.New("session content not loaded")
	// ErrFormatMismatch is the data-integrity error for content whose shape
	// does not belong to the session's format.
	ErrFormatMismatch = errors.New("content does not match session format")
	// ErrSessionFinished rejects operations on a terminal session.
	ErrSessionFinished = errors.New("session already finished")
	// ErrNameTaken rejects a join with a duplicate display name.
	ErrNameTaken = errors.New("player name already taken")
	// ErrInvalidTransition rejects a lifecycle operation from the wrong state.
	ErrInvalidTransition = errors.New("invalid session state transition")
)
