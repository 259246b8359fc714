package core

import (
	"fmt"
	"strings"
)

// QueryConfig is the caller-supplied description of a run.
type QueryConfig struct {
	Persona   string
	Job       string
	Documents []string
}

func ValidateQueryConfig(cfg *QueryConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfiguration)
	}

	if strings.TrimSpace(cfg.Persona) == "" {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrMissingPersona)
	}

	if strings.TrimSpace(cfg.Job) == "" {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrMissingJob)
	}

	for i, doc := range cfg.Documents {
		if strings.TrimSpace(doc) == "" {
			return fmt.Errorf("%w: document %d has an empty identifier", ErrConfiguration, i)
		}
	}

	return nil
}

func ValidateSection(section *Section) error {
	if section == nil {
		return fmt.Errorf("%w: section is nil", ErrEmptyHeading)
	}
	if strings.TrimSpace(section.Heading) == "" {
		return fmt.Errorf("%w: document %q section %d", ErrEmptyHeading, section.DocumentID, section.Index)
	}
	return nil
}
