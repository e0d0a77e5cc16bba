package pipeline

import (
	"errors"

	"github.com/spigell/resume-scorer/internal/extract"
)

var (
	ErrNoFile              = errors.New("no resume file provided")
	ErrNoJobDescription    = errors.New("job description is required")
	ErrUnsupportedFormat   = extract.ErrUnsupportedFormat
	ErrExtractionFailed    = errors.New("could not extract enough text from the resume")
	ErrUpstreamUnavailable = errors.New("no LLM provider is available")
	ErrInternal            = errors.New("internal error during analysis")
)

// ErrorKind classifies pipeline errors for callers that map them onto a transport.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindNoFile              ErrorKind = "NoFile"
	KindNoJobDescription    ErrorKind = "NoJobDescription"
	KindUnsupportedFormat   ErrorKind = "UnsupportedFormat"
	KindExtractionFailed    ErrorKind = "ExtractionFailed"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindInternal            ErrorKind = "Internal"
)

// KindOf returns the kind of err. Unknown errors are Internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNoFile):
		return KindNoFile
	case errors.Is(err, ErrNoJobDescription):
		return KindNoJobDescription
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrExtractionFailed):
		return KindExtractionFailed
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	default:
		return KindInternal
	}
}

// IsInputError reports whether err was caused by the caller's input.
func (k ErrorKind) IsInputError() bool {
	switch k {
	case KindNoFile, KindNoJobDescription, KindUnsupportedFormat, KindExtractionFailed:
		return true
	}
	return false
}
