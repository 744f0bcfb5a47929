package domain

import "errors"

var (
	// ErrLoadFailure is reported when the question source could not be read.
	ErrLoadFailure = errors.New("failed to load quiz questions")
	// ErrNoQuestions is returned by start when nothing (or an empty set) has been loaded.
	ErrNoQuestions = errors.New("no questions available")
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionSetNotFound indicates the configured question set does not exist.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrInvalidQuestionSet indicates a question set failed validation at the source boundary.
	ErrInvalidQuestionSet = errors.New("invalid question set")
	// ErrUnknownCommand is returned for commands the controller does not understand.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrSessionClosed is returned when a command reaches a runner that has shut down.
	ErrSessionClosed = errors.New("quiz session closed")
)

// UserMessage maps an error to the text shown on the display surface.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLoadFailure):
		return "Failed to load quiz questions. Please try again."
	case errors.Is(err, ErrNoQuestions):
		return "No questions available. Please try again."
	default:
		return err.Error()
	}
}
