package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

const envelopeSchemaURL = "https://sitebuilder.local/schema/layout-document.json"

// EnvelopeSchema is the JSON Schema of the persisted document shape. It checks
// structure only; per-type data is checked against the section registry.
const EnvelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "layout document",
  "type": "object",
  "required": ["layout"],
  "properties": {
    "name": {"type": "string"},
    "theme": {"type": "string"},
    "layout": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "data"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "data": {"type": "object"}
        }
      }
    }
  }
}`

var (
	envelopeOnce sync.Once
	envelope     *jsonschema.Schema
	envelopeErr  error
)

func envelopeValidator() (*jsonschema.Schema, error) {
	envelopeOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(envelopeSchemaURL, strings.NewReader(EnvelopeSchema)); err != nil {
			envelopeErr = err
			return
		}
		envelope, envelopeErr = compiler.Compile(envelopeSchemaURL)
	})
	return envelope, envelopeErr
}

// Encode serializes the persisted shape {name, theme, layout}.
func Encode(doc Document) ([]byte, error) {
	// copy so the caller's snapshot is never written to
	sections := make([]Section, len(doc.Sections))
	copy(sections, doc.Sections)
	for i := range sections {
		if sections[i].Data == nil {
			sections[i].Data = section.Data{}
		}
	}
	doc.Sections = sections
	return json.Marshal(doc)
}

// Decode parses a persisted document. The envelope is validated and the
// structural invariants are checked; section data is accepted as-is.
func Decode(raw []byte) (Document, error) {
	schema, err := envelopeValidator()
	if err != nil {
		return Document{}, fmt.Errorf("compile document schema: %w", err)
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&generic); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := schema.Validate(generic); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if strings.TrimSpace(doc.Name) == "" {
		doc.Name = DefaultName
	}
	if doc.Theme == "" {
		doc.Theme = theme.DefaultID
	}
	if doc.Sections == nil {
		doc.Sections = []Section{}
	}
	for i := range doc.Sections {
		if doc.Sections[i].Data == nil {
			doc.Sections[i].Data = section.Data{}
		}
	}
	if err := CheckInvariants(doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return doc, nil
}

// DecodeStrict is Decode for untrusted imports: every section must be of a
// registered type and satisfy its schema.
func DecodeStrict(raw []byte, reg *section.Registry) (Document, error) {
	doc, err := Decode(raw)
	if err != nil {
		return Document{}, err
	}
	if err := ValidateSections(doc, reg); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ValidateSections checks every section against the registry, stopping at the
// first failure.
func ValidateSections(doc Document, reg *section.Registry) error {
	for _, s := range doc.Sections {
		if !reg.Known(s.Type) {
			return fmt.Errorf("%w: %s (section %s)", ErrUnknownSectionType, s.Type, s.ID)
		}
		if bad := reg.Validate(s.Type, s.Data); len(bad) > 0 {
			return &SchemaViolationError{SectionID: s.ID, Type: s.Type, Keys: bad}
		}
	}
	return nil
}
