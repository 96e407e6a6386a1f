package editor

import (
	"fmt"
	"sync"
	"time"

	"sitebuilder/internal/layout"
	"sitebuilder/internal/metrics"
	"sitebuilder/internal/section"
	"sitebuilder/internal/theme"
)

// DefaultHistoryLimit bounds the undo stack when Options leaves it unset.
const DefaultHistoryLimit = 100

// Action names, used as metric labels.
const (
	ActionAdd         = "add_section"
	ActionDelete      = "delete_section"
	ActionEdit        = "commit_edit"
	ActionImport      = "commit_import"
	ActionResizeCards = "resize_cards"
	ActionDragMove    = "commit_move"
	ActionMove        = "move_section"
	ActionTheme       = "switch_theme"
	ActionSelect      = "select"
	ActionClear       = "clear_selection"
	ActionRename      = "rename"
	ActionReplace     = "replace"
	ActionUndo        = "undo"
	ActionRedo        = "redo"
)

type Options struct {
	// Strict rejects unknown type tags on AddSection.
	Strict       bool
	HistoryLimit int
	Now          func() time.Time
	Metrics      metrics.Recorder
}

// MoveDescriptor is the result of a drag gesture: the dragged section and the
// section it was dropped over. Ids are resolved to indices when committed.
type MoveDescriptor struct {
	MovedID  string `json:"moved_id"`
	TargetID string `json:"target_id"`
}

// Session is the single writer for one document. Every action runs to
// completion under the session lock and either replaces the snapshot or leaves
// it untouched.
type Session struct {
	mu       sync.Mutex
	reg      *section.Registry
	palette  *theme.Palette
	opts     Options
	doc      layout.Document
	undo     []layout.Document
	redo     []layout.Document
	revision int64
	saved    int64
}

func NewSession(doc layout.Document, reg *section.Registry, palette *theme.Palette, opts Options) *Session {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Metrics = metrics.OrNoop(opts.Metrics)
	return &Session{reg: reg, palette: palette, opts: opts, doc: doc.Clone()}
}

// Current returns a copy of the current snapshot.
func (s *Session) Current() layout.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Revision counts content changes applied since the session opened,
// including undo and redo.
func (s *Session) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Dirty reports whether content changed since the last MarkSaved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision != s.saved
}

// MarkSaved records rev as persisted.
func (s *Session) MarkSaved(rev int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = rev
}

// CanUndo and CanRedo report history availability.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

func (s *Session) AddSection(typ string) Result {
	return s.apply(ActionAdd, true, func(doc layout.Document) (layout.Document, error) {
		next, _, err := layout.CreateSection(doc, s.reg, typ, layout.CreateOptions{Strict: s.opts.Strict, Now: s.opts.Now})
		return next, err
	})
}

func (s *Session) DeleteSection(id string) Result {
	return s.apply(ActionDelete, true, func(doc layout.Document) (layout.Document, error) {
		return layout.RemoveSection(doc, id)
	})
}

// CommitEdit replaces a section's data bag. The bag is trusted editor input
// and is not validated.
func (s *Session) CommitEdit(id string, data section.Data) Result {
	return s.apply(ActionEdit, true, func(doc layout.Document) (layout.Document, error) {
		return layout.PatchSectionData(doc, id, data)
	})
}

// CommitImport replaces a section's data bag with untrusted input, which must
// satisfy the section type's schema.
func (s *Session) CommitImport(id string, data section.Data) Result {
	return s.apply(ActionImport, true, func(doc layout.Document) (layout.Document, error) {
		return layout.PatchSectionDataStrict(doc, s.reg, id, data)
	})
}

// ResizeCards sets the card count of a cards section, growing or trimming
// its parallel lists together.
func (s *Session) ResizeCards(id string, n int) Result {
	return s.apply(ActionResizeCards, true, func(doc layout.Document) (layout.Document, error) {
		cur, ok := doc.Section(id)
		if !ok {
			return doc, fmt.Errorf("%w: %s", layout.ErrSectionNotFound, id)
		}
		if cur.Type != section.TypeCards {
			return doc, &layout.SchemaViolationError{SectionID: id, Type: cur.Type, Keys: []string{"count"}}
		}
		return layout.PatchSectionData(doc, id, section.ResizeCards(cur.Data, n))
	})
}

// CommitMove completes a drag gesture. Both ids are resolved against the
// current snapshot; a missing id or a drop onto the dragged section's own
// slot is a silent no-op.
func (s *Session) CommitMove(m MoveDescriptor) Result {
	return s.apply(ActionDragMove, true, func(doc layout.Document) (layout.Document, error) {
		from, to := doc.IndexOf(m.MovedID), doc.IndexOf(m.TargetID)
		if from < 0 || to < 0 || from == to {
			return doc, nil
		}
		return layout.MoveSection(doc, from, to)
	})
}

func (s *Session) MoveSection(from, to int) Result {
	return s.apply(ActionMove, true, func(doc layout.Document) (layout.Document, error) {
		return layout.MoveSection(doc, from, to)
	})
}

// SwitchTheme rejects ids the palette does not hold.
func (s *Session) SwitchTheme(themeID string) Result {
	return s.apply(ActionTheme, true, func(doc layout.Document) (layout.Document, error) {
		if !s.palette.Has(themeID) {
			return doc, fmt.Errorf("%w: %s", ErrUnknownTheme, themeID)
		}
		if doc.Theme == themeID {
			return doc, nil
		}
		return layout.SetTheme(doc, themeID), nil
	})
}

func (s *Session) Select(id string) Result {
	return s.apply(ActionSelect, false, func(doc layout.Document) (layout.Document, error) {
		return layout.SelectSection(doc, id)
	})
}

func (s *Session) ClearSelection() Result {
	return s.apply(ActionClear, false, func(doc layout.Document) (layout.Document, error) {
		return layout.ClearSelection(doc), nil
	})
}

func (s *Session) Rename(name string) Result {
	return s.apply(ActionRename, true, func(doc layout.Document) (layout.Document, error) {
		return layout.Rename(doc, name), nil
	})
}

// Replace swaps in a whole document, for example one decoded from an import.
// The selection is cleared.
func (s *Session) Replace(doc layout.Document) Result {
	return s.apply(ActionReplace, true, func(layout.Document) (layout.Document, error) {
		next := layout.ClearSelection(doc.Clone())
		if err := layout.CheckInvariants(next); err != nil {
			return layout.Document{}, err
		}
		return next, nil
	})
}

// Undo restores the snapshot before the last content change. With nothing to
// undo it is a no-op.
func (s *Session) Undo() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undo) == 0 {
		s.opts.Metrics.IncMutation(ActionUndo, metrics.OutcomeNoop)
		return Result{Document: s.doc.Clone()}
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.doc)
	s.doc = prev
	s.revision++
	s.opts.Metrics.IncMutation(ActionUndo, metrics.OutcomeApplied)
	return Result{Document: s.doc.Clone(), Applied: true}
}

// Redo reapplies the last undone change. Any new content change empties the
// redo stack.
func (s *Session) Redo() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.redo) == 0 {
		s.opts.Metrics.IncMutation(ActionRedo, metrics.OutcomeNoop)
		return Result{Document: s.doc.Clone()}
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.pushUndo(s.doc)
	s.doc = next
	s.revision++
	s.opts.Metrics.IncMutation(ActionRedo, metrics.OutcomeApplied)
	return Result{Document: s.doc.Clone(), Applied: true}
}

// apply runs op against the current snapshot. content marks actions that
// enter the undo history; selection moves do not.
func (s *Session) apply(action string, content bool, op func(layout.Document) (layout.Document, error)) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := op(s.doc)
	if err == nil {
		err = layout.CheckInvariants(next)
	}
	if err != nil {
		s.opts.Metrics.IncMutation(action, metrics.OutcomeRejected)
		return Result{Document: s.doc.Clone(), Failure: classify(err)}
	}
	if sameDocument(s.doc, next) {
		s.opts.Metrics.IncMutation(action, metrics.OutcomeNoop)
		return Result{Document: s.doc.Clone()}
	}
	if content {
		s.pushUndo(s.doc)
		s.redo = nil
		s.revision++
	}
	s.doc = next
	s.opts.Metrics.IncMutation(action, metrics.OutcomeApplied)
	return Result{Document: s.doc.Clone(), Applied: true}
}

func (s *Session) pushUndo(doc layout.Document) {
	s.undo = append(s.undo, doc)
	if over := len(s.undo) - s.opts.HistoryLimit; over > 0 {
		s.undo = append([]layout.Document(nil), s.undo[over:]...)
	}
}

// sameDocument reports whether op handed back the snapshot untouched. Layout
// operations copy the section slice on every change, so sharing the backing
// array together with equal scalar fields means nothing changed.
func sameDocument(a, b layout.Document) bool {
	if a.Name != b.Name || a.Theme != b.Theme || a.SelectedID != b.SelectedID {
		return false
	}
	if len(a.Sections) != len(b.Sections) {
		return false
	}
	if len(a.Sections) == 0 {
		return true
	}
	return &a.Sections[0] == &b.Sections[0]
}
