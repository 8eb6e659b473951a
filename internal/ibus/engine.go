// Package ibus exposes sessions to the IBus input-method framework over D-Bus.
//
// IBus asks a Factory for an engine per input context, then forwards key
// events to that engine. Each Engine owns one session; whatever the session
// reports back is turned into CommitText, UpdatePreeditText and
// UpdateLookupTable signals.
package ibus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"rimebridge/internal/proto"
	"rimebridge/internal/session"
)

// IBus D-Bus constants
const (
	IBusService          = "org.freedesktop.IBus"
	IBusPath             = "/org/freedesktop/IBus"
	IBusFactoryInterface = "org.freedesktop.IBus.Factory"
	IBusEngineInterface  = "org.freedesktop.IBus.Engine"
	IBusServiceInterface = "org.freedesktop.IBus.Service"

	FactoryPath = "/org/freedesktop/IBus/Factory"
	enginePath  = "/org/freedesktop/IBus/Engine/"
)

// IBus key event state masks. They coincide with the engine's modifier masks.
const (
	IBusShiftMask   uint32 = 1 << 0
	IBusLockMask    uint32 = 1 << 1
	IBusControlMask uint32 = 1 << 2
	IBusMod1Mask    uint32 = 1 << 3
	IBusMod4Mask    uint32 = 1 << 6
	IBusReleaseMask uint32 = 1 << 30
)

// IBusPropStateChecked is the state PropertyActivate reports for a checked
// toggle.
const IBusPropStateChecked uint32 = 1

// Keysyms synthesized for the lookup table navigation methods.
const (
	keyPageUp   = 0xff55
	keyPageDown = 0xff56
	keyUp       = 0xff52
	keyDown     = 0xff54
)

// Emitter sends D-Bus signals. *dbus.Conn implements it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Engine implements org.freedesktop.IBus.Engine for one input context.
type Engine struct {
	path        dbus.ObjectPath
	emitter     Emitter
	session     *session.Session
	logger      *slog.Logger
	orientation int32
	onDestroy   func(*Engine)

	mu             sync.Mutex
	enabled        bool
	focused        bool
	capabilities   uint32
	preeditVisible bool
	tableVisible   bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOrientation sets the lookup table orientation.
func WithOrientation(o int32) EngineOption {
	return func(e *Engine) { e.orientation = o }
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine at path with a fresh session from mgr.
func NewEngine(path dbus.ObjectPath, emitter Emitter, mgr *session.Manager, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		path:        path,
		emitter:     emitter,
		logger:      slog.Default(),
		orientation: OrientationSystem,
	}
	for _, opt := range opts {
		opt(e)
	}
	s, err := mgr.Create(session.WithHandler(e.handle))
	if err != nil {
		return nil, fmt.Errorf("create engine session: %w", err)
	}
	e.session = s
	e.logger = e.logger.With("path", string(path), "session", uint64(s.ID()))
	return e, nil
}

// Path returns the engine's object path.
func (e *Engine) Path() dbus.ObjectPath {
	return e.path
}

// Session returns the engine's session.
func (e *Engine) Session() *session.Session {
	return e.session
}

func (e *Engine) emit(signal string, values ...interface{}) {
	if err := e.emitter.Emit(e.path, IBusEngineInterface+"."+signal, values...); err != nil {
		e.logger.Warn("emit failed", "signal", signal, "error", err)
	}
}

// handle receives every message the session produces. It runs with the
// session locked and must not call back into the session.
func (e *Engine) handle(m proto.Message) {
	switch msg := m.(type) {
	case proto.ResponseMessage:
		e.update(msg)
	case proto.SchemaMessage:
		e.logger.Info("schema selected", "schema", msg.Schema.SchemaID, "name", msg.Schema.Name)
	case proto.OptionMessage:
		e.logger.Debug("option changed", "option", msg.Option, "value", msg.Value)
	case proto.DeployMessage:
		e.logger.Info("deploy", "state", msg.State.String())
	}
}

func (e *Engine) update(resp proto.ResponseMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if resp.Commit.Text != "" {
		e.emit("CommitText", dbus.MakeVariant(NewText(resp.Commit.Text)))
	}

	comp := resp.Context.Composition
	if comp.Preedit != "" {
		e.emit("UpdatePreeditText",
			dbus.MakeVariant(PreeditText(comp)), uint32(comp.CursorChars()), true, PreeditClear)
		e.preeditVisible = true
	} else if e.preeditVisible {
		e.emit("HidePreeditText")
		e.preeditVisible = false
	}

	if len(resp.Context.Menu.Candidates) > 0 {
		e.emit("UpdateLookupTable", dbus.MakeVariant(NewLookupTable(resp.Context.Menu, e.orientation)), true)
		e.tableVisible = true
	} else if e.tableVisible {
		e.emit("HideLookupTable")
		e.tableVisible = false
	}
}

func (e *Engine) hideAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.preeditVisible {
		e.emit("HidePreeditText")
		e.preeditVisible = false
	}
	if e.tableVisible {
		e.emit("HideLookupTable")
		e.tableVisible = false
	}
}

func (e *Engine) processKey(keyval, state uint32) (bool, error) {
	msg, err := e.session.ProcessKey(int(keyval), int(state))
	if err != nil {
		return false, err
	}
	_, handled := msg.(proto.ResponseMessage)
	return handled, nil
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass through.
func (e *Engine) ProcessKeyEvent(keyval, keycode, state uint32) (bool, *dbus.Error) {
	handled, err := e.processKey(keyval, state)
	if err != nil {
		e.logger.Error("process key failed", "keyval", keyval, "keycode", keycode, "error", err)
		return false, dbus.MakeFailedError(err)
	}
	return handled, nil
}

func (e *Engine) navigate(keyval uint32) *dbus.Error {
	if _, err := e.processKey(keyval, 0); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// PageUp handles page up in candidate list.
func (e *Engine) PageUp() *dbus.Error { return e.navigate(keyPageUp) }

// PageDown handles page down in candidate list.
func (e *Engine) PageDown() *dbus.Error { return e.navigate(keyPageDown) }

// CursorUp handles cursor up in candidate list.
func (e *Engine) CursorUp() *dbus.Error { return e.navigate(keyUp) }

// CursorDown handles cursor down in candidate list.
func (e *Engine) CursorDown() *dbus.Error { return e.navigate(keyDown) }

// CandidateClicked selects a candidate on the current page.
func (e *Engine) CandidateClicked(index, button, state uint32) *dbus.Error {
	if _, err := e.session.SelectCandidate(int(index)); err != nil {
		e.logger.Error("select candidate failed", "index", index, "error", err)
		return dbus.MakeFailedError(err)
	}
	return nil
}

// FocusIn is called when the engine gains input focus.
func (e *Engine) FocusIn() *dbus.Error {
	e.mu.Lock()
	e.focused = true
	e.mu.Unlock()
	return nil
}

// FocusOut drops the composition when the input context loses focus.
func (e *Engine) FocusOut() *dbus.Error {
	e.mu.Lock()
	e.focused = false
	e.mu.Unlock()
	return e.Reset()
}

// Reset clears the composition.
func (e *Engine) Reset() *dbus.Error {
	if err := e.session.ClearComposition(); err != nil {
		return dbus.MakeFailedError(err)
	}
	e.hideAll()
	return nil
}

// Enable is called when the engine is enabled.
func (e *Engine) Enable() *dbus.Error {
	e.mu.Lock()
	e.enabled = true
	e.mu.Unlock()
	return nil
}

// Disable is called when the engine is disabled.
func (e *Engine) Disable() *dbus.Error {
	e.mu.Lock()
	e.enabled = false
	e.mu.Unlock()
	return e.Reset()
}

// SetCapabilities records the client's capabilities.
func (e *Engine) SetCapabilities(caps uint32) *dbus.Error {
	e.mu.Lock()
	e.capabilities = caps
	e.mu.Unlock()
	return nil
}

// SetContentType informs about the type of content being edited.
func (e *Engine) SetContentType(purpose, hints uint32) *dbus.Error {
	return nil
}

// SetCursorLocation informs about cursor position.
func (e *Engine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

// SetSurroundingText provides context around the cursor.
func (e *Engine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	return nil
}

// PropertyActivate toggles the engine option named by the property.
func (e *Engine) PropertyActivate(propName string, state uint32) *dbus.Error {
	if err := e.session.SetOption(propName, state == IBusPropStateChecked); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Destroy closes the session and unexports the engine.
func (e *Engine) Destroy() *dbus.Error {
	if e.onDestroy != nil {
		e.onDestroy(e)
		return nil
	}
	if err := e.session.Close(); err != nil {
		e.logger.Warn("close session", "error", err)
	}
	return nil
}

// State reports whether the engine is enabled and focused.
func (e *Engine) State() (enabled, focused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled, e.focused
}
