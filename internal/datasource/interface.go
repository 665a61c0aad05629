package datasource

import (
	"context"
	"errors"
	"fmt"
)

// DocumentKind identifies one of the three result documents of a race
type DocumentKind string

const (
	// KindRanking is the final classification document
	KindRanking DocumentKind = "ranking"
	// KindPitStops is the pit-stop (stint) report
	KindPitStops DocumentKind = "pitstops"
	// KindLapHistory is the per-team lap history report
	KindLapHistory DocumentKind = "laps"
)

// DocumentKinds lists every kind in import order
var DocumentKinds = []DocumentKind{KindRanking, KindPitStops, KindLapHistory}

// ParseDocumentKind maps a form field or CLI flag name to its kind
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch DocumentKind(s) {
	case KindRanking, KindPitStops, KindLapHistory:
		return DocumentKind(s), nil
	case "classement":
		return KindRanking, nil
	case "arrets", "stints":
		return KindPitStops, nil
	case "tours", "lap_history":
		return KindLapHistory, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// DocumentSource loads the text of race result documents
type DocumentSource interface {
	// Load returns the extracted text of the document of the given kind.
	// A source without that document returns a DataSourceError with
	// ErrCodeNotFound.
	Load(ctx context.Context, kind DocumentKind) (string, error)

	// Name returns the name of the source
	Name() string
}

// DataSourceError represents errors from document source operations
type DataSourceError struct {
	Source  string // Source name
	Code    string // Error code (e.g., "not_found")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeUnknown           = "unknown"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidData  = errors.New("invalid document format")
	ErrNetworkError = errors.New("network error")
	ErrServerError  = errors.New("server error")
	ErrCircuitOpen  = errors.New("circuit breaker open")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether err is a DataSourceError for a missing document
func IsNotFound(err error) bool {
	var dsErr DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code == ErrCodeNotFound
	}
	return errors.Is(err, ErrNotFound)
}

// IsInvalidData reports whether err is a DataSourceError for a document that
// could not be decoded
func IsInvalidData(err error) bool {
	var dsErr DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code == ErrCodeInvalidData
	}
	return errors.Is(err, ErrInvalidData)
}
