package editor

import (
	"errors"

	"sitebuilder/internal/layout"
)

var (
	ErrUnknownTheme    = errors.New("unknown theme")
	ErrSessionNotFound = errors.New("session not found")
)

// Code classifies a rejected action.
type Code string

const (
	CodeSectionNotFound Code = "section_not_found"
	CodeUnknownType     Code = "unknown_section_type"
	CodeSchemaViolation Code = "schema_violation"
	CodeIndexOutOfRange Code = "index_out_of_range"
	CodeUnknownTheme    Code = "unknown_theme"
	CodeInvariant       Code = "invariant_violation"
	CodeInvalid         Code = "invalid"
)

// Failure describes why an action was rejected. The session keeps its prior
// snapshot whenever a Failure is returned.
type Failure struct {
	Code    Code     `json:"code"`
	Message string   `json:"message"`
	Keys    []string `json:"keys,omitempty"`
	err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.err }

// Result is the outcome of one action. Applied is false both for rejections
// (Failure set) and for silent no-ops.
type Result struct {
	Document layout.Document
	Applied  bool
	Failure  *Failure
}

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

func classify(err error) *Failure {
	f := &Failure{Message: err.Error(), err: err}
	var sv *layout.SchemaViolationError
	var ie *layout.InvariantError
	switch {
	case errors.As(err, &sv):
		f.Code = CodeSchemaViolation
		f.Keys = append([]string(nil), sv.Keys...)
	case errors.As(err, &ie):
		f.Code = CodeInvariant
	case errors.Is(err, layout.ErrSectionNotFound):
		f.Code = CodeSectionNotFound
	case errors.Is(err, layout.ErrUnknownSectionType):
		f.Code = CodeUnknownType
	case errors.Is(err, layout.ErrIndexOutOfRange):
		f.Code = CodeIndexOutOfRange
	case errors.Is(err, ErrUnknownTheme):
		f.Code = CodeUnknownTheme
	default:
		f.Code = CodeInvalid
	}
	return f
}
