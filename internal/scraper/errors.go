package scraper

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by the controller when a start request
// arrives while a job is active. The existing snapshot is left untouched.
var ErrAlreadyRunning = errors.New("a scrape job is already running")

// ErrMissingRegion is returned when a start request names no region.
var ErrMissingRegion = errors.New("region is required")

// EntryError marks a job-level failure: the source could not be reached or
// the region/amenity filters could not be applied. It aborts the run.
type EntryError struct {
	Op  string
	Err error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// NewEntryError wraps err as a fatal entry-level failure.
func NewEntryError(op string, err error) *EntryError {
	return &EntryError{Op: op, Err: err}
}

// ExtractionError marks an item-level failure: a single detail page did not
// parse. The controller records a sentinel record and continues.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError wraps err as a recoverable item-level failure.
func NewExtractionError(url string, err error) *ExtractionError {
	return &ExtractionError{URL: url, Err: err}
}

// IsEntryError reports whether err is classified as job-level.
func IsEntryError(err error) bool {
	var entry *EntryError
	return errors.As(err, &entry)
}
