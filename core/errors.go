package core

import "errors"

var (
	// ErrSourceRead indicates a document could not be parsed into text runs.
	ErrSourceRead = errors.New("source read failed")

	// ErrEmptyContent indicates a document produced no sections.
	ErrEmptyContent = errors.New("no content extracted")

	// ErrEmbeddingUnavailable indicates the embedder failed or timed out for a text.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrConfiguration indicates the query configuration cannot form a query.
	ErrConfiguration = errors.New("invalid query configuration")

	// ErrMissingPersona indicates the persona field is empty.
	ErrMissingPersona = errors.New("persona cannot be empty")

	// ErrMissingJob indicates the job-to-be-done field is empty.
	ErrMissingJob = errors.New("job to be done cannot be empty")

	// ErrEmptyHeading indicates a section was built without a heading.
	ErrEmptyHeading = errors.New("section heading cannot be empty")
)
