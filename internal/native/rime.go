//go:build librime

package native

/*
#cgo pkg-config: rime
#cgo CXXFLAGS: -std=c++17
#include <stdlib.h>
#include "rime_shim.h"

static void rb_setup(RimeTraits *t) { rb_api()->setup(t); }
static void rb_initialize(RimeTraits *t) { rb_api()->initialize(t); }
static void rb_finalize(void) { rb_api()->finalize(); }
static int rb_start_maintenance(int full) { return rb_api()->start_maintenance(full); }
static void rb_join_maintenance(void) { rb_api()->join_maintenance_thread(); }

static RimeSessionId rb_create_session(void) { return rb_api()->create_session(); }
static int rb_find_session(RimeSessionId id) { return rb_api()->find_session(id); }
static int rb_destroy_session(RimeSessionId id) { return rb_api()->destroy_session(id); }
static int rb_process_key(RimeSessionId id, int keycode, int mask) { return rb_api()->process_key(id, keycode, mask); }
static void rb_clear_composition(RimeSessionId id) { rb_api()->clear_composition(id); }
static int rb_select_candidate_on_current_page(RimeSessionId id, size_t index) { return rb_api()->select_candidate_on_current_page(id, index); }

static int rb_get_commit(RimeSessionId id, RimeCommit *c) { return rb_api()->get_commit(id, c); }
static void rb_free_commit(RimeCommit *c) { rb_api()->free_commit(c); }
static int rb_get_context(RimeSessionId id, RimeContext *c) { return rb_api()->get_context(id, c); }
static void rb_free_context(RimeContext *c) { rb_api()->free_context(c); }
static int rb_get_status(RimeSessionId id, RimeStatus *s) { return rb_api()->get_status(id, s); }
static void rb_free_status(RimeStatus *s) { rb_api()->free_status(s); }
static int rb_get_schema_list(RimeSchemaList *l) { return rb_api()->get_schema_list(l); }
static void rb_free_schema_list(RimeSchemaList *l) { rb_api()->free_schema_list(l); }

static int rb_select_schema(RimeSessionId id, const char *schema) { return rb_api()->select_schema(id, schema); }
static void rb_set_option(RimeSessionId id, const char *opt, int value) { rb_api()->set_option(id, opt, value); }
static int rb_get_option(RimeSessionId id, const char *opt) { return rb_api()->get_option(id, opt); }
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	engineMu   sync.Mutex
	engineOpen bool

	handlerMu sync.RWMutex
	handler   NotificationHandler
)

// Open sets up and initializes librime. librime is a process-wide
// singleton, so only one Engine may be open at a time.
func Open(traits Traits, h NotificationHandler) (Engine, error) {
	engineMu.Lock()
	defer engineMu.Unlock()
	if engineOpen {
		return nil, ErrEngineOpen
	}

	handlerMu.Lock()
	handler = h
	handlerMu.Unlock()

	var t C.RimeTraits
	C.rb_traits_init(&t)
	strs := []*C.char{}
	set := func(dst **C.char, s string) {
		if s == "" {
			return
		}
		cs := C.CString(s)
		strs = append(strs, cs)
		*dst = cs
	}
	set(&t.shared_data_dir, traits.SharedDataDir)
	set(&t.user_data_dir, traits.UserDataDir)
	set(&t.distribution_name, traits.DistributionName)
	set(&t.distribution_code_name, traits.DistributionCode)
	set(&t.distribution_version, traits.DistributionVersion)
	set(&t.app_name, traits.AppName)
	set(&t.log_dir, traits.LogDir)
	t.min_log_level = C.int(traits.MinLogLevel)
	defer func() {
		for _, cs := range strs {
			C.free(unsafe.Pointer(cs))
		}
	}()

	C.rb_setup(&t)
	C.rb_set_notification_handler()
	C.rb_initialize(&t)

	engineOpen = true
	return &rimeEngine{}, nil
}

// Keys returns librime's key table. It does not require an open engine.
func Keys() (KeyTable, error) {
	return rimeKeys{}, nil
}

func dispatch(n Notification) {
	handlerMu.RLock()
	h := handler
	handlerMu.RUnlock()
	if h != nil {
		h(n)
	}
}

type rimeKeys struct{}

func (rimeKeys) ParseKeyEvent(repr string) (keycode, modifier int) {
	crepr := C.CString(repr)
	defer C.free(unsafe.Pointer(crepr))
	var k, m C.int
	C.rb_key_parse(crepr, &k, &m)
	return int(k), int(m)
}

func (rimeKeys) KeyEventRepr(keycode, modifier int) string {
	cs := C.rb_key_repr(C.int(keycode), C.int(modifier))
	defer C.free(unsafe.Pointer(cs))
	return C.GoString(cs)
}

func (rimeKeys) ModifierByName(name string) int {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return int(C.rb_modifier_by_name(cs))
}

func (rimeKeys) KeycodeByName(name string) int {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return int(C.rb_keycode_by_name(cs))
}

func (rimeKeys) KeyUnicode(keycode int) int {
	return int(C.rb_key_unicode(C.int(keycode)))
}

type rimeEngine struct {
	rimeKeys
	closeOnce sync.Once
}

func sid(id SessionID) C.RimeSessionId {
	return C.RimeSessionId(id)
}

func (e *rimeEngine) check(id SessionID) error {
	if C.rb_find_session(sid(id)) == 0 {
		return ErrNoSession
	}
	return nil
}

func (e *rimeEngine) CreateSession() (SessionID, error) {
	id := C.rb_create_session()
	if id == 0 {
		return 0, errors.New("native: create session failed")
	}
	return SessionID(id), nil
}

func (e *rimeEngine) DestroySession(id SessionID) error {
	if C.rb_destroy_session(sid(id)) == 0 {
		return ErrNoSession
	}
	return nil
}

func (e *rimeEngine) ProcessKey(id SessionID, keycode, mask int) (bool, error) {
	if err := e.check(id); err != nil {
		return false, err
	}
	return C.rb_process_key(sid(id), C.int(keycode), C.int(mask)) != 0, nil
}

func (e *rimeEngine) ClearComposition(id SessionID) error {
	if err := e.check(id); err != nil {
		return err
	}
	C.rb_clear_composition(sid(id))
	return nil
}

func (e *rimeEngine) SelectCandidateOnCurrentPage(id SessionID, index int) (bool, error) {
	if err := e.check(id); err != nil {
		return false, err
	}
	if index < 0 {
		return false, nil
	}
	return C.rb_select_candidate_on_current_page(sid(id), C.size_t(index)) != 0, nil
}

// goStr copies a nullable C string.
func goStr(p *C.char) *string {
	if p == nil {
		return nil
	}
	s := C.GoString(p)
	return &s
}

func (e *rimeEngine) Commit(id SessionID) (*Commit, bool, error) {
	if err := e.check(id); err != nil {
		return nil, false, err
	}
	var c C.RimeCommit
	C.rb_commit_init(&c)
	if C.rb_get_commit(sid(id), &c) == 0 {
		return nil, false, nil
	}
	defer C.rb_free_commit(&c)
	return &Commit{Text: goStr(c.text)}, true, nil
}

func (e *rimeEngine) Context(id SessionID) (*Context, bool, error) {
	if err := e.check(id); err != nil {
		return nil, false, err
	}
	var c C.RimeContext
	C.rb_context_init(&c)
	if C.rb_get_context(sid(id), &c) == 0 {
		return nil, false, nil
	}
	defer C.rb_free_context(&c)

	ctx := &Context{
		Composition: Composition{
			Length:    int(c.composition.length),
			CursorPos: int(c.composition.cursor_pos),
			SelStart:  int(c.composition.sel_start),
			SelEnd:    int(c.composition.sel_end),
			Preedit:   goStr(c.composition.preedit),
		},
		Menu: Menu{
			PageSize:                  int(c.menu.page_size),
			PageNo:                    int(c.menu.page_no),
			IsLastPage:                c.menu.is_last_page != 0,
			HighlightedCandidateIndex: int(c.menu.highlighted_candidate_index),
			NumCandidates:             int(c.menu.num_candidates),
			SelectKeys:                goStr(c.menu.select_keys),
		},
		CommitTextPreview: goStr(c.commit_text_preview),
	}

	if n := ctx.Menu.NumCandidates; n > 0 && c.menu.candidates != nil {
		src := unsafe.Slice(c.menu.candidates, n)
		ctx.Menu.Candidates = make([]Candidate, n)
		for i := range src {
			ctx.Menu.Candidates[i] = Candidate{
				Text:    goStr(src[i].text),
				Comment: goStr(src[i].comment),
			}
		}
	}

	if C.rb_context_has_labels(&c) != 0 && ctx.Menu.PageSize > 0 {
		src := unsafe.Slice(c.select_labels, ctx.Menu.PageSize)
		ctx.SelectLabels = make([]string, len(src))
		for i, p := range src {
			if p != nil {
				ctx.SelectLabels[i] = C.GoString(p)
			}
		}
	}
	return ctx, true, nil
}

func (e *rimeEngine) Status(id SessionID) (*Status, bool, error) {
	if err := e.check(id); err != nil {
		return nil, false, err
	}
	var s C.RimeStatus
	C.rb_status_init(&s)
	if C.rb_get_status(sid(id), &s) == 0 {
		return nil, false, nil
	}
	defer C.rb_free_status(&s)
	return &Status{
		SchemaID:      goStr(s.schema_id),
		SchemaName:    goStr(s.schema_name),
		IsDisabled:    s.is_disabled != 0,
		IsComposing:   s.is_composing != 0,
		IsASCIIMode:   s.is_ascii_mode != 0,
		IsFullShape:   s.is_full_shape != 0,
		IsSimplified:  s.is_simplified != 0,
		IsTraditional: s.is_traditional != 0,
		IsASCIIPunct:  s.is_ascii_punct != 0,
	}, true, nil
}

func (e *rimeEngine) SchemaList() (*SchemaList, bool, error) {
	var l C.RimeSchemaList
	if C.rb_get_schema_list(&l) == 0 {
		return nil, false, nil
	}
	defer C.rb_free_schema_list(&l)

	list := &SchemaList{Size: int(l.size)}
	if list.Size > 0 {
		src := unsafe.Slice(l.list, list.Size)
		list.List = make([]SchemaListItem, list.Size)
		for i := range src {
			list.List[i] = SchemaListItem{
				SchemaID: goStr(src[i].schema_id),
				Name:     goStr(src[i].name),
			}
		}
	}
	return list, true, nil
}

func (e *rimeEngine) SelectSchema(id SessionID, schemaID string) (bool, error) {
	if err := e.check(id); err != nil {
		return false, err
	}
	cs := C.CString(schemaID)
	defer C.free(unsafe.Pointer(cs))
	return C.rb_select_schema(sid(id), cs) != 0, nil
}

func (e *rimeEngine) SetOption(id SessionID, option string, value bool) error {
	if err := e.check(id); err != nil {
		return err
	}
	cs := C.CString(option)
	defer C.free(unsafe.Pointer(cs))
	v := C.int(0)
	if value {
		v = 1
	}
	C.rb_set_option(sid(id), cs, v)
	return nil
}

func (e *rimeEngine) Option(id SessionID, option string) (bool, error) {
	if err := e.check(id); err != nil {
		return false, err
	}
	cs := C.CString(option)
	defer C.free(unsafe.Pointer(cs))
	return C.rb_get_option(sid(id), cs) != 0, nil
}

func (e *rimeEngine) Deploy(full bool) error {
	f := C.int(0)
	if full {
		f = 1
	}
	if C.rb_start_maintenance(f) != 0 {
		C.rb_join_maintenance()
	}
	return nil
}

func (e *rimeEngine) Close() error {
	e.closeOnce.Do(func() {
		C.rb_finalize()
		engineMu.Lock()
		engineOpen = false
		engineMu.Unlock()
	})
	return nil
}
