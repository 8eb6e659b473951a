// Package nativetest provides an in-memory native.Engine for tests.
//
// The fake engine understands a tiny pinyin-like table: lowercase letters
// compose, space or a digit selects a candidate, Return commits the raw
// input, Escape clears, and BackSpace deletes one letter. When SelectKeys is
// set, its keys select instead of the digits. It is enough to
// drive sessions and frontends without linking librime.
package nativetest

import (
	"strings"
	"sync"

	"rimebridge/internal/keytable"
	"rimebridge/internal/native"
)

// DefaultLexicon is the lexicon of engines made by New.
var DefaultLexicon = map[string][]string{
	"ni":    {"你", "尼", "泥"},
	"hao":   {"好", "号", "浩"},
	"nihao": {"你好", "拟好"},
	"zhong": {"中", "种", "重", "众", "钟", "终", "忠", "仲", "盅", "衷", "肿", "冢"},
}

// Engine is an in-memory native.Engine.
type Engine struct {
	keytable.Table

	// Lexicon maps composed input to candidates.
	Lexicon map[string][]string
	// PageSize is the menu page size; 0 means 5.
	PageSize int
	// SelectKeys and SelectLabels are copied into every menu when set.
	SelectKeys   *string
	SelectLabels []string
	// Schemas is the installed schema list.
	Schemas []native.SchemaListItem

	// Handler receives notifications posted by the engine.
	Handler native.NotificationHandler

	mu       sync.Mutex
	next     native.SessionID
	sessions map[native.SessionID]*session
	closed   bool
	deploys  int
}

type session struct {
	input   string
	page    int
	commit  *string
	schema  native.SchemaListItem
	options map[string]bool
}

var _ native.Engine = (*Engine)(nil)

// New returns an engine with the default lexicon and two schemas.
func New() *Engine {
	return &Engine{
		Lexicon: DefaultLexicon,
		Schemas: []native.SchemaListItem{
			{SchemaID: native.String("luna_pinyin"), Name: native.String("朙月拼音")},
			{SchemaID: native.String("cangjie5"), Name: native.String("倉頡五代")},
		},
	}
}

func (e *Engine) notify(id native.SessionID, typ, value string) {
	if e.Handler != nil {
		e.Handler(native.Notification{SessionID: id, Type: typ, Value: value})
	}
}

func (e *Engine) pageSize() int {
	if e.PageSize > 0 {
		return e.PageSize
	}
	return 5
}

func (e *Engine) get(id native.SessionID) (*session, error) {
	s, ok := e.sessions[id]
	if !ok || e.closed {
		return nil, native.ErrNoSession
	}
	return s, nil
}

// Sessions returns the number of live sessions.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Deploys returns how many times Deploy ran.
func (e *Engine) Deploys() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deploys
}

func (e *Engine) CreateSession() (native.SessionID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions == nil {
		e.sessions = make(map[native.SessionID]*session)
	}
	e.next++
	s := &session{options: map[string]bool{}}
	if len(e.Schemas) > 0 {
		s.schema = e.Schemas[0]
	}
	e.sessions[e.next] = s
	return e.next, nil
}

func (e *Engine) DestroySession(id native.SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.get(id); err != nil {
		return err
	}
	delete(e.sessions, id)
	return nil
}

func (e *Engine) ProcessKey(id native.SessionID, keycode, mask int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.get(id)
	if err != nil {
		return false, err
	}
	return e.process(s, keycode, mask), nil
}

func (e *Engine) process(s *session, keycode, mask int) bool {
	if mask&keytable.ReleaseMask != 0 {
		return false
	}
	if mask&(keytable.ControlMask|keytable.AltMask|keytable.SuperMask) != 0 {
		return false
	}
	if s.options["ascii_mode"] {
		return false
	}

	if e.SelectKeys != nil && s.input != "" {
		if i := strings.IndexRune(*e.SelectKeys, rune(keycode)); i >= 0 {
			return e.selectCandidate(s, i)
		}
		if keycode >= '0' && keycode <= '9' {
			return false
		}
	}

	switch {
	case keycode >= 'a' && keycode <= 'z':
		s.input += string(rune(keycode))
		s.page = 0
		return true
	case s.input == "":
		return false
	case keycode == 0xff08: // BackSpace
		s.input = s.input[:len(s.input)-1]
		s.page = 0
		return true
	case keycode == 0xff1b: // Escape
		s.input = ""
		return true
	case keycode == 0xff0d: // Return
		s.commit = native.String(s.input)
		s.input = ""
		return true
	case keycode == ' ':
		return e.selectCandidate(s, 0)
	case keycode >= '1' && keycode <= '9':
		return e.selectCandidate(s, keycode-'1')
	case keycode == '0':
		return e.selectCandidate(s, 9)
	case keycode == 0xff56 || keycode == '=': // Page_Down
		if (s.page+1)*e.pageSize() < len(e.Lexicon[s.input]) {
			s.page++
		}
		return true
	case keycode == 0xff55 || keycode == '-': // Page_Up
		if s.page > 0 {
			s.page--
		}
		return true
	}
	return false
}

func (e *Engine) selectCandidate(s *session, index int) bool {
	cands := e.Lexicon[s.input]
	i := s.page*e.pageSize() + index
	if index >= e.pageSize() || i >= len(cands) {
		return true
	}
	s.commit = native.String(cands[i])
	s.input = ""
	s.page = 0
	return true
}

func (e *Engine) SelectCandidateOnCurrentPage(id native.SessionID, index int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.get(id)
	if err != nil {
		return false, err
	}
	if s.input == "" || index < 0 || index >= e.pageSize() ||
		s.page*e.pageSize()+index >= len(e.Lexicon[s.input]) {
		return false, nil
	}
	return e.selectCandidate(s, index), nil
}

func (e *Engine) ClearComposition(id native.SessionID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.get(id)
	if err != nil {
		return err
	}
	s.input = ""
	s.page = 0
	return nil
}

func (e *Engine) Commit(id native.SessionID) (*native.Commit, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.get(id)
	if err != nil {
		return nil, false, err
	}
	if s.commit == nil {
		return nil, false, nil
	}
	c := &native.Commit{Text: s.commit}
	s.commit = nil
	return c, true, nil
}

func (e *Engine) Context(id native.SessionID) (*native.Context, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.get(id)
	if err != nil {
		return nil, false, err
	}

	ctx := &native.Context{
		Menu: native.Menu{PageSize: e.pageSize(), PageNo: s.page, IsLastPage: true},
	}
	if s.input == "" {
		return ctx, true, nil
	}

	n := len(s.input)
	ctx.Composition = native.Composition{
		Length:    n,
		CursorPos: n,
		SelStart:  0,
		SelEnd:    n,
		Preedit:   native.String(s.input),
	}

	cands := e.Lexicon[s.input]
	start := s.page * e.pageSize()
	end := min(start+e.pageSize(), len(cands))
	for _, c := range cands[start:end] {
		ctx.Menu.Candidates = append(ctx.Menu.Candidates, native.Candidate{Text: native.String(c)})
	}
	ctx.Menu.NumCandidates = len(ctx.Menu.Candidates)
	ctx.Menu.IsLastPage = end >= len(cands)
	ctx.Menu.SelectKeys = e.SelectKeys
	ctx.SelectLabels = e.SelectLabels
	if len(cands) > 0 {
		ctx.CommitTextPreview = native.String(cands[start])
	}
	return ctx, true, nil
}

func (e *Engine) Status(id native.SessionID) (*native.Status, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.get(id)
	if err != nil {
		return nil, false, err
	}
	return &native.Status{
		SchemaID:     s.schema.SchemaID,
		SchemaName:   s.schema.Name,
		IsComposing:  s.input != "",
		IsASCIIMode:  s.options["ascii_mode"],
		IsFullShape:  s.options["full_shape"],
		IsSimplified: s.options["simplification"],
		IsASCIIPunct: s.options["ascii_punct"],
	}, true, nil
}

func (e *Engine) SchemaList() (*native.SchemaList, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Schemas) == 0 {
		return nil, false, nil
	}
	items := make([]native.SchemaListItem, len(e.Schemas))
	copy(items, e.Schemas)
	return &native.SchemaList{Size: len(items), List: items}, true, nil
}

func (e *Engine) SelectSchema(id native.SessionID, schemaID string) (bool, error) {
	e.mu.Lock()
	s, err := e.get(id)
	if err != nil {
		e.mu.Unlock()
		return false, err
	}
	var found *native.SchemaListItem
	for i := range e.Schemas {
		if *e.Schemas[i].SchemaID == schemaID {
			found = &e.Schemas[i]
			break
		}
	}
	if found == nil {
		e.mu.Unlock()
		return false, nil
	}
	s.schema = *found
	s.input = ""
	value := schemaID
	if found.Name != nil {
		value += "/" + *found.Name
	}
	e.mu.Unlock()

	e.notify(id, "schema", value)
	return true, nil
}

func (e *Engine) SetOption(id native.SessionID, option string, value bool) error {
	e.mu.Lock()
	s, err := e.get(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	s.options[option] = value
	e.mu.Unlock()

	msg := option
	if !value {
		msg = "!" + option
	}
	e.notify(id, "option", msg)
	return nil
}

func (e *Engine) Option(id native.SessionID, option string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.get(id)
	if err != nil {
		return false, err
	}
	return s.options[option], nil
}

func (e *Engine) Deploy(full bool) error {
	e.notify(0, "deploy", "start")
	e.mu.Lock()
	e.deploys++
	e.mu.Unlock()
	e.notify(0, "deploy", "success")
	return nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.sessions = nil
	return nil
}

// Input returns the composing input of a session, for assertions.
func (e *Engine) Input(id native.SessionID) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[id]; ok {
		return s.input
	}
	return ""
}

