package layout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSectionNotFound    = errors.New("section not found")
	ErrUnknownSectionType = errors.New("unknown section type")
	ErrSchemaViolation    = errors.New("schema violation")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrMalformedDocument  = errors.New("malformed document")
)

// SchemaViolationError lists the offending keys of a section's data.
type SchemaViolationError struct {
	SectionID string
	Type      string
	Keys      []string
}

func (e *SchemaViolationError) Error() string {
	if e.SectionID != "" {
		return fmt.Sprintf("schema violation in %s section %s: %s", e.Type, e.SectionID, strings.Join(e.Keys, ", "))
	}
	return fmt.Sprintf("schema violation in %s section: %s", e.Type, strings.Join(e.Keys, ", "))
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// InvariantError reports a structurally invalid document. Documents built
// through this package never produce one, so it indicates a defect upstream.
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return "document invariant violated: " + strings.Join(e.Violations, "; ")
}
