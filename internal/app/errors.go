package app

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the outcome of a processing step.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Step names a unit of work inside a submission.
type Step string

const (
	StepValidate      Step = "validate"
	StepSession       Step = "session"
	StepLoadQuestions Step = "load_questions"
	StepSaveScore     Step = "save_score"
	StepUpdateUser    Step = "update_user"
	StepQuestionStats Step = "question_stats"
	StepLeaderboard   Step = "leaderboard"
	StepPublishEvent  Step = "publish_event"
)

// StepError is the result of a failed step. Whether it aborts the request is
// decided by the caller: fatal ones are returned, the rest are kept as warnings.
type StepError struct {
	Step Step
	Kind ErrorKind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(step Step, kind ErrorKind, err error) *StepError {
	return &StepError{Step: step, Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind of err, or 0 if err is not a StepError.
func KindOf(err error) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
