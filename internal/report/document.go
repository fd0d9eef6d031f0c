package report

import (
	"context"
	"errors"
)

// ContentTypeXLSX is the media type of the generated workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Report errors.
var (
	// ErrUnavailable means the backend could not be reached or did not
	// answer in time.
	ErrUnavailable = errors.New("report backend unavailable")

	// ErrRejected means the backend answered with a non-success status.
	ErrRejected = errors.New("report backend rejected the request")

	// ErrMalformedPayload means a success response did not carry a
	// readable workbook.
	ErrMalformedPayload = errors.New("malformed report payload")
)

// Document is a generated report ready to hand to the operator.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (d *Document) Size() int {
	return len(d.Data)
}

// Generator produces the report for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Document, error)
}

// Error carries the backend's own explanation of a failure.
type Error struct {
	// StatusCode is the HTTP status returned, or 0 for transport failures.
	StatusCode int

	// Message is the server-provided text; empty when none was sent.
	Message string

	// Err is one of the package sentinel errors.
	Err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Err.Error() + ": " + e.Message
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ServerMessage returns the text the backend supplied, if any.
func ServerMessage(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}
