package export

import (
	"bytes"
	"context"

	"sitebuilder/internal/section"
)

// Backend turns one section into a markup fragment.
type Backend interface {
	Name() string
	// Deterministic reports whether identical input always yields identical
	// bytes. Manifests record it so callers know whether artifacts can be
	// compared or cached.
	Deterministic() bool
	RenderSection(ctx context.Context, in section.RenderInput) ([]byte, error)
}

// Local renders with the registry's own render rules.
type Local struct {
	Registry *section.Registry
}

func (Local) Name() string { return "local" }

func (Local) Deterministic() bool { return true }

func (l Local) RenderSection(_ context.Context, in section.RenderInput) ([]byte, error) {
	var buf bytes.Buffer
	if err := l.Registry.RenderRuleFor(in.Type)(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
