package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when an insert hits a uniqueness
	// constraint, e.g. a production article for the same source_url.
	ErrAlreadyExists = errors.New("already exists")

	// ErrSummaryRequired is returned when a staging record without a
	// summary is about to be marked processed.
	ErrSummaryRequired = errors.New("summary required before marking processed")
)
