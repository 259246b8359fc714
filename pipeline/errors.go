package pipeline

import "errors"

var (
	// ErrSourceRequired is returned when a pipeline is created without a document source.
	ErrSourceRequired = errors.New("document source is required")

	// ErrEmbedderRequired is returned when a pipeline is created without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrTableRequired is returned when a pipeline is created without a rule table.
	ErrTableRequired = errors.New("rule table is required")

	// ErrDocumentPanic is recorded for a document whose processing panicked.
	ErrDocumentPanic = errors.New("document processing panicked")
)
