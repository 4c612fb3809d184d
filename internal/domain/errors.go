package domain

import "errors"

var (
	// ErrFormNotFound is returned when a form does not exist or is soft-deleted.
	ErrFormNotFound = errors.New("form not found")
	// ErrFormNotAvailable is returned when a form exists but is not active.
	ErrFormNotAvailable = errors.New("form not available")
	// ErrResponseNotFound is returned when a form response does not exist.
	ErrResponseNotFound = errors.New("form response not found")
	// ErrQuestionNotFound indicates a question could not be resolved inside a
	// loaded form. Validation runs first, so hitting this means a bug.
	ErrQuestionNotFound = errors.New("question not found in form")
	// ErrAlternativeNotFound indicates an alternative could not be resolved
	// inside its question. Same defensive nature as ErrQuestionNotFound.
	ErrAlternativeNotFound = errors.New("alternative not found in question")
	// ErrUnauthenticated is returned when no current user accompanies a
	// submission or a session token is missing or expired.
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidScore is returned when a score is built from an impossible
	// correct/total pair. Programmer error, not user input.
	ErrInvalidScore = errors.New("invalid score")
	// ErrTooFewAlternatives rejects authoring a question with fewer than two
	// alternatives.
	ErrTooFewAlternatives = errors.New("question needs at least two alternatives")
	// ErrAmbiguousCorrectAlternative rejects authoring a question without
	// exactly one correct alternative.
	ErrAmbiguousCorrectAlternative = errors.New("question needs exactly one correct alternative")
)
