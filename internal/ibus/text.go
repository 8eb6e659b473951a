package ibus

import (
	"strings"
	"unicode/utf8"

	"github.com/godbus/dbus/v5"

	"rimebridge/internal/proto"
)

// IBus serializes its objects as D-Bus structs whose first two members are
// the type name and an attachment dictionary.

// Attribute types and values understood by IBus.
const (
	AttrTypeUnderline  uint32 = 1
	AttrTypeForeground uint32 = 2
	AttrTypeBackground uint32 = 3

	AttrUnderlineSingle uint32 = 1
)

// Lookup table orientations.
const (
	OrientationHorizontal int32 = 0
	OrientationVertical   int32 = 1
	OrientationSystem     int32 = 2
)

// Preedit focus modes for UpdatePreeditText.
const (
	PreeditClear  uint32 = 0
	PreeditCommit uint32 = 1
)

// Attribute is an IBusAttribute, (sa{sv}uuuu). Start and End are character
// offsets.
type Attribute struct {
	Name        string
	Attachments map[string]dbus.Variant
	Type        uint32
	Value       uint32
	Start       uint32
	End         uint32
}

// AttrList is an IBusAttrList, (sa{sv}av).
type AttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

// Text is an IBusText, (sa{sv}sv).
type Text struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	AttrList    dbus.Variant
}

// LookupTable is an IBusLookupTable, (sa{sv}uubbiavav).
type LookupTable struct {
	Name          string
	Attachments   map[string]dbus.Variant
	PageSize      uint32
	CursorPos     uint32
	CursorVisible bool
	Round         bool
	Orientation   int32
	Candidates    []dbus.Variant
	Labels        []dbus.Variant
}

// NewAttribute builds an attribute over the characters [start, end).
func NewAttribute(typ, value uint32, start, end int) Attribute {
	return Attribute{
		Name:        "IBusAttribute",
		Attachments: map[string]dbus.Variant{},
		Type:        typ,
		Value:       value,
		Start:       uint32(start),
		End:         uint32(end),
	}
}

// NewText builds an IBusText.
func NewText(s string, attrs ...Attribute) Text {
	list := AttrList{
		Name:        "IBusAttrList",
		Attachments: map[string]dbus.Variant{},
		Attributes:  make([]dbus.Variant, len(attrs)),
	}
	for i, a := range attrs {
		list.Attributes[i] = dbus.MakeVariant(a)
	}
	return Text{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        s,
		AttrList:    dbus.MakeVariant(list),
	}
}

// PreeditText renders a composition: the whole preedit is underlined and
// the segment being converted gets a background.
func PreeditText(c proto.Composition) Text {
	n := utf8.RuneCountInString(c.Preedit)
	if n == 0 {
		return NewText("")
	}
	attrs := []Attribute{NewAttribute(AttrTypeUnderline, AttrUnderlineSingle, 0, n)}
	if start, end := c.SelStartChars(), c.SelEndChars(); end > start {
		attrs = append(attrs,
			NewAttribute(AttrTypeBackground, 0xd1eaff, start, end),
			NewAttribute(AttrTypeForeground, 0x000000, start, end))
	}
	return NewText(c.Preedit, attrs...)
}

// NewLookupTable builds a lookup table holding one menu page. Labels drop
// the separator space the engine appends.
func NewLookupTable(m proto.Menu, orientation int32) LookupTable {
	t := LookupTable{
		Name:          "IBusLookupTable",
		Attachments:   map[string]dbus.Variant{},
		PageSize:      uint32(max(m.PageSize, len(m.Candidates))),
		CursorVisible: true,
		Orientation:   orientation,
		Candidates:    make([]dbus.Variant, len(m.Candidates)),
		Labels:        make([]dbus.Variant, len(m.Candidates)),
	}
	if m.HighlightedCandidateIndex > 0 {
		t.CursorPos = uint32(m.HighlightedCandidateIndex)
	}
	for i, c := range m.Candidates {
		text := c.Text
		if c.Comment != "" {
			text += " " + c.Comment
		}
		t.Candidates[i] = dbus.MakeVariant(NewText(text))
		t.Labels[i] = dbus.MakeVariant(NewText(strings.TrimSuffix(c.Label, " ")))
	}
	return t
}
