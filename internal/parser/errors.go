package parser

import (
	"fmt"
	"strings"
)

// MalformedTokenError is returned when a time token cannot be read
type MalformedTokenError struct {
	Token string
}

func (e *MalformedTokenError) Error() string {
	return fmt.Sprintf("malformed time token %q", e.Token)
}

// MalformedDocumentError is returned when a document yields no usable record
type MalformedDocumentError struct {
	Document string
	Reason   string
	Err      error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed %s document: %s", e.Document, e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// AmbiguousFieldError describes a field whose sources disagree
type AmbiguousFieldError struct {
	KartNumber int
	Field      string
	Values     []int
}

func (e *AmbiguousFieldError) Error() string {
	values := make([]string, len(e.Values))
	for i, v := range e.Values {
		values[i] = FormatMs(v)
	}
	return fmt.Sprintf("kart #%d: ambiguous %s (%s)", e.KartNumber, e.Field, strings.Join(values, " vs "))
}
