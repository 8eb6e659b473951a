// Package native describes the boundary to the Rime input-method engine.
//
// The types in this package mirror librime's C structs field for field and keep
// their nullability: a nullable char* is a *string, the optional select_labels
// array is a nil slice when the engine does not provide it, and a schema list
// carries its declared size next to the items. Values are copied out of C memory
// by the binding before they are returned, so a snapshot never points into
// engine-owned memory, but no normalization happens here. Turning snapshots into
// host values is the job of package marshal.
package native

import "errors"

// Sentinel errors returned by engine bindings.
var (
	// ErrUnavailable is returned when the binary was built without librime.
	ErrUnavailable = errors.New("native: librime support not compiled in")

	// ErrNoSession is returned for operations on an unknown or destroyed session.
	ErrNoSession = errors.New("native: no such session")

	// ErrEngineOpen is returned by Open while another engine is still open.
	ErrEngineOpen = errors.New("native: engine already open")
)

// VoidSymbol is the keycode the engine reports for an unknown key name.
const VoidSymbol = 0xffffff

// SessionID identifies an engine session.
type SessionID uintptr

// Commit mirrors RimeCommit.
type Commit struct {
	Text *string
}

// Composition mirrors RimeComposition. Offsets are UTF-8 byte offsets into Preedit.
type Composition struct {
	Length    int
	CursorPos int
	SelStart  int
	SelEnd    int
	Preedit   *string
}

// Candidate mirrors RimeCandidate.
type Candidate struct {
	Text    *string
	Comment *string
}

// Menu mirrors RimeMenu.
type Menu struct {
	PageSize                  int
	PageNo                    int
	IsLastPage                bool
	HighlightedCandidateIndex int
	NumCandidates             int
	Candidates                []Candidate
	SelectKeys                *string
}

// Context mirrors RimeContext.
type Context struct {
	Composition       Composition
	Menu              Menu
	CommitTextPreview *string

	// SelectLabels is nil when the engine's struct predates the member or the
	// schema defines no labels. When present it covers [0, Menu.PageSize).
	SelectLabels []string
}

// Status mirrors RimeStatus.
type Status struct {
	SchemaID      *string
	SchemaName    *string
	IsDisabled    bool
	IsComposing   bool
	IsASCIIMode   bool
	IsFullShape   bool
	IsSimplified  bool
	IsTraditional bool
	IsASCIIPunct  bool
}

// SchemaListItem mirrors RimeSchemaListItem.
type SchemaListItem struct {
	SchemaID *string
	Name     *string
}

// SchemaList mirrors RimeSchemaList. Size is the count declared by the engine.
type SchemaList struct {
	Size int
	List []SchemaListItem
}

// Notification is a message posted by the engine's notification handler,
// e.g. Type "schema" with Value "luna_pinyin/朙月拼音".
type Notification struct {
	SessionID SessionID
	Type      string
	Value     string
}

// NotificationHandler receives engine notifications.
type NotificationHandler func(Notification)

// KeyTable is the engine's key-event parser and key name tables.
type KeyTable interface {
	// ParseKeyEvent parses a textual key event such as "Control+Shift+a".
	// Malformed input yields the parser's fallback values, never an error.
	ParseKeyEvent(repr string) (keycode, modifier int)

	// KeyEventRepr returns the canonical representation of a key event.
	KeyEventRepr(keycode, modifier int) string

	// ModifierByName returns the modifier mask for name, or 0 if unknown.
	ModifierByName(name string) int

	// KeycodeByName returns the keycode for name, or VoidSymbol if unknown.
	KeycodeByName(name string) int

	// KeyUnicode returns the printable code point of keycode, or 0.
	KeyUnicode(keycode int) int
}

// Traits configures engine setup. Field names follow RimeTraits.
type Traits struct {
	SharedDataDir       string
	UserDataDir         string
	DistributionName    string
	DistributionCode    string
	DistributionVersion string
	AppName             string
	LogDir              string
	MinLogLevel         int
}

// Engine is a running librime instance.
type Engine interface {
	KeyTable

	CreateSession() (SessionID, error)
	DestroySession(id SessionID) error

	// ProcessKey feeds one key event to the session and reports whether the
	// engine handled it.
	ProcessKey(id SessionID, keycode, mask int) (bool, error)
	ClearComposition(id SessionID) error
	// SelectCandidateOnCurrentPage picks the index-th candidate of the
	// current menu page, independent of the schema's select keys.
	SelectCandidateOnCurrentPage(id SessionID, index int) (bool, error)

	// The getters return a snapshot, or ok == false when the engine has
	// nothing to report (e.g. no pending commit).
	Commit(id SessionID) (c *Commit, ok bool, err error)
	Context(id SessionID) (c *Context, ok bool, err error)
	Status(id SessionID) (s *Status, ok bool, err error)
	SchemaList() (l *SchemaList, ok bool, err error)

	SelectSchema(id SessionID, schemaID string) (bool, error)
	SetOption(id SessionID, option string, value bool) error
	Option(id SessionID, option string) (bool, error)

	// Deploy runs maintenance (rebuilding compiled dictionaries) and blocks
	// until it finishes.
	Deploy(full bool) error

	Close() error
}
