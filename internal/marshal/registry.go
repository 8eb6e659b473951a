// Package marshal converts engine snapshots into host values.
//
// Each conversion walks one native snapshot and builds fresh values through a
// Registry, which the caller passes in. The package has no state of its own:
// conversions are pure, synchronous and never block.
package marshal

import "rimebridge/internal/proto"

// Registry constructs host values from positional arguments. It is a
// read-only capability: conversions call it but never change it.
type Registry interface {
	KeyEvent(keycode, modifier int, repr string) proto.KeyEvent
	Commit(text string) proto.Commit
	Composition(length, cursorPos, selStart, selEnd int, preedit string) proto.Composition
	Candidate(comment, text, label string) proto.Candidate
	Menu(pageSize, pageNumber int, isLastPage bool, highlightedIndex, numCandidates int, candidates []proto.Candidate) proto.Menu
	Context(composition proto.Composition, menu proto.Menu, commitTextPreview string, selectLabels []string) proto.Context
	Status(schemaID, schemaName string, isDisabled, isComposing, isASCIIMode, isFullShape, isSimplified, isTraditional, isASCIIPunct bool) proto.Status
	SchemaListItem(schemaID, name string) proto.SchemaListItem
}

// DefaultRegistry builds plain proto values.
type DefaultRegistry struct{}

var _ Registry = DefaultRegistry{}

func (DefaultRegistry) KeyEvent(keycode, modifier int, repr string) proto.KeyEvent {
	return proto.KeyEvent{Keycode: keycode, Modifier: modifier, Repr: repr}
}

func (DefaultRegistry) Commit(text string) proto.Commit {
	return proto.Commit{Text: text}
}

func (DefaultRegistry) Composition(length, cursorPos, selStart, selEnd int, preedit string) proto.Composition {
	return proto.Composition{
		Length:    length,
		CursorPos: cursorPos,
		SelStart:  selStart,
		SelEnd:    selEnd,
		Preedit:   preedit,
	}
}

func (DefaultRegistry) Candidate(comment, text, label string) proto.Candidate {
	return proto.Candidate{Text: text, Comment: comment, Label: label}
}

func (DefaultRegistry) Menu(pageSize, pageNumber int, isLastPage bool, highlightedIndex, numCandidates int, candidates []proto.Candidate) proto.Menu {
	return proto.Menu{
		PageSize:                  pageSize,
		PageNumber:                pageNumber,
		IsLastPage:                isLastPage,
		HighlightedCandidateIndex: highlightedIndex,
		NumCandidates:             numCandidates,
		Candidates:                candidates,
	}
}

func (DefaultRegistry) Context(composition proto.Composition, menu proto.Menu, commitTextPreview string, selectLabels []string) proto.Context {
	return proto.Context{
		Composition:       composition,
		Menu:              menu,
		CommitTextPreview: commitTextPreview,
		SelectLabels:      selectLabels,
	}
}

func (DefaultRegistry) Status(schemaID, schemaName string, isDisabled, isComposing, isASCIIMode, isFullShape, isSimplified, isTraditional, isASCIIPunct bool) proto.Status {
	return proto.Status{
		SchemaID:      schemaID,
		SchemaName:    schemaName,
		IsDisabled:    isDisabled,
		IsComposing:   isComposing,
		IsASCIIMode:   isASCIIMode,
		IsFullShape:   isFullShape,
		IsSimplified:  isSimplified,
		IsTraditional: isTraditional,
		IsASCIIPunct:  isASCIIPunct,
	}
}

func (DefaultRegistry) SchemaListItem(schemaID, name string) proto.SchemaListItem {
	return proto.SchemaListItem{SchemaID: schemaID, Name: name}
}
