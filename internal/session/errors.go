package session

import "errors"

var (
	ErrValidation        = errors.New("invalid student information")
	ErrInvalidTransition = errors.New("operation not allowed in current phase")
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrWrongAnswerType   = errors.New("answer type does not match question")
	ErrOptionOutOfRange  = errors.New("option index out of range")
	ErrForcedSubmission  = errors.New("time is up, submission can only be retried")
	ErrClosed            = errors.New("session closed")
	ErrInvalidDefinition = errors.New("invalid exam definition")
)
