package domain

import "errors"

var (
	// ErrEmptySubmission is returned when a submission carries no answers.
	ErrEmptySubmission = errors.New("answers must be a non-empty list")
	// ErrInvalidTimeTaken rejects negative elapsed time.
	ErrInvalidTimeTaken = errors.New("timeTaken must not be negative")
	// ErrQuestionNotFound indicates a question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuestion rejects malformed admin input.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email twice.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized indicates a missing or invalid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionNotFound indicates a quiz session is unknown or belongs to someone else.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrCategoryEmpty is returned when a category has no active questions.
	ErrCategoryEmpty = errors.New("no active questions in category")
	// ErrVersionConflict signals a concurrent write on an optimistic store.
	ErrVersionConflict = errors.New("version conflict")
)
