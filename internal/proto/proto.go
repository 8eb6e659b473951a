// Package proto defines the host-side values produced from engine snapshots.
//
// Every value here owns its memory. None of them is ever built directly from a
// native snapshot outside package marshal.
package proto

import (
	"fmt"
	"unicode/utf8"
)

// KeyEvent is one key press or release.
type KeyEvent struct {
	Keycode  int    `json:"keycode"`
	Modifier int    `json:"modifier"`
	Repr     string `json:"repr"`
}

func (k KeyEvent) String() string {
	return k.Repr
}

// Commit is text the engine wants inserted into the application.
type Commit struct {
	Text string `json:"text"`
}

// Composition is the pre-edit buffer. Length, CursorPos, SelStart and SelEnd
// are UTF-8 byte offsets into Preedit, as reported by the engine.
type Composition struct {
	Length    int    `json:"length"`
	CursorPos int    `json:"cursor_pos"`
	SelStart  int    `json:"sel_start"`
	SelEnd    int    `json:"sel_end"`
	Preedit   string `json:"preedit"`
}

// SelStartChars returns SelStart as a character offset into Preedit.
func (c Composition) SelStartChars() int {
	return charOffset(c.Preedit, c.SelStart)
}

// SelEndChars returns SelEnd as a character offset into Preedit.
func (c Composition) SelEndChars() int {
	return charOffset(c.Preedit, c.SelEnd)
}

// CursorChars returns CursorPos as a character offset into Preedit.
func (c Composition) CursorChars() int {
	return charOffset(c.Preedit, c.CursorPos)
}

func charOffset(s string, byteOffset int) int {
	if s == "" || byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(s) {
		byteOffset = len(s)
	}
	return utf8.RuneCountInString(s[:byteOffset])
}

// Candidate is one entry of the candidate menu (CandidateListItem).
type Candidate struct {
	Text    string `json:"text"`
	Comment string `json:"comment"`

	// Label is the select label shown next to the candidate, with its
	// trailing separator space.
	Label string `json:"label"`
}

func (c Candidate) String() string {
	if c.Comment == "" {
		return c.Label + c.Text
	}
	return fmt.Sprintf("%s%s (%s)", c.Label, c.Text, c.Comment)
}

// Menu is one page of candidates.
type Menu struct {
	PageSize                  int         `json:"page_size"`
	PageNumber                int         `json:"page_no"`
	IsLastPage                bool        `json:"is_last_page"`
	HighlightedCandidateIndex int         `json:"highlighted_candidate_index"`
	NumCandidates             int         `json:"num_candidates"`
	Candidates                []Candidate `json:"candidates"`
}

// Highlighted returns the highlighted candidate, if any.
func (m Menu) Highlighted() (Candidate, bool) {
	i := m.HighlightedCandidateIndex
	if i < 0 || i >= len(m.Candidates) {
		return Candidate{}, false
	}
	return m.Candidates[i], true
}

// Context is the composition together with its candidate menu.
type Context struct {
	Composition       Composition `json:"composition"`
	Menu              Menu        `json:"menu"`
	CommitTextPreview string      `json:"commit_text_preview"`
	SelectLabels      []string    `json:"select_labels"`
}

// Status is a snapshot of the engine's mode flags.
type Status struct {
	SchemaID      string `json:"schema_id"`
	SchemaName    string `json:"schema_name"`
	IsDisabled    bool   `json:"is_disabled"`
	IsComposing   bool   `json:"is_composing"`
	IsASCIIMode   bool   `json:"is_ascii_mode"`
	IsFullShape   bool   `json:"is_full_shape"`
	IsSimplified  bool   `json:"is_simplified"`
	IsTraditional bool   `json:"is_traditional"`
	IsASCIIPunct  bool   `json:"is_ascii_punct"`
}

// SchemaListItem is one selectable input schema.
type SchemaListItem struct {
	SchemaID string `json:"schema_id"`
	Name     string `json:"name"`
}
