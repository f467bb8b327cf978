package rag

import "errors"

var (
	// ErrRetrievalUnavailable means the store call failed even after a retry.
	// Distinct from a legitimate empty result set.
	ErrRetrievalUnavailable = errors.New("retrieval temporarily unavailable")

	// ErrGenerationTimeout means the model call exceeded its deadline twice.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrGenerationFailure means the model call failed for another reason.
	ErrGenerationFailure = errors.New("generation failed")

	// ErrEmptyQuestion is returned when a request carries no question text.
	ErrEmptyQuestion = errors.New("question is required")

	// ErrEmptyDocument is returned when a document has no extractable text.
	ErrEmptyDocument = errors.New("document has no text content")
)
