package export

import "errors"

// Export errors.
var (
	ErrExportInProgress = errors.New("export already in progress")
	ErrEmptySelection   = errors.New("no stations selected")
)

// Kind classifies an export failure.
type Kind string

// Failure kinds.
const (
	// KindValidation means the input was incomplete or outside the window;
	// nothing was sent.
	KindValidation Kind = "validation"

	// KindBusy means another export of the same session is running.
	KindBusy Kind = "busy"

	// KindUpstream means the report backend failed or returned an
	// unreadable payload.
	KindUpstream Kind = "upstream"
)

// Error is an export failure with the message to show the operator.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
