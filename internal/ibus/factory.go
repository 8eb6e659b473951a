package ibus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"rimebridge/internal/native"
	"rimebridge/internal/session"
)

// Conn is the part of *dbus.Conn the factory needs.
type Conn interface {
	Emitter
	Export(v interface{}, path dbus.ObjectPath, iface string) error
}

// Factory implements org.freedesktop.IBus.Factory.
type Factory struct {
	conn       Conn
	mgr        *session.Manager
	engineName string
	opts       []EngineOption
	logger     *slog.Logger

	mu      sync.Mutex
	next    uint32
	engines map[dbus.ObjectPath]*Engine
}

// NewFactory creates a factory serving engineName.
func NewFactory(conn Conn, mgr *session.Manager, engineName string, logger *slog.Logger, opts ...EngineOption) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		conn:       conn,
		mgr:        mgr,
		engineName: engineName,
		opts:       append([]EngineOption{WithEngineLogger(logger)}, opts...),
		logger:     logger,
		engines:    make(map[dbus.ObjectPath]*Engine),
	}
}

// CreateEngine creates a new engine instance for IBus.
func (f *Factory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	if engineName != f.engineName {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"Unknown engine: " + engineName})
	}

	f.mu.Lock()
	f.next++
	path := dbus.ObjectPath(fmt.Sprintf("%s%d", enginePath, f.next))
	f.mu.Unlock()

	e, err := NewEngine(path, f.conn, f.mgr, f.opts...)
	if err != nil {
		f.logger.Error("create engine failed", "error", err)
		return "", dbus.MakeFailedError(err)
	}
	e.onDestroy = f.destroyEngine

	if err := f.conn.Export(e, path, IBusEngineInterface); err != nil {
		f.mgr.Destroy(e.session.ID())
		return "", dbus.MakeFailedError(err)
	}

	f.mu.Lock()
	f.engines[path] = e
	f.mu.Unlock()

	f.logger.Info("engine created", "path", string(path))
	return path, nil
}

func (f *Factory) destroyEngine(e *Engine) {
	f.mu.Lock()
	delete(f.engines, e.path)
	f.mu.Unlock()

	if err := f.conn.Export(nil, e.path, IBusEngineInterface); err != nil {
		f.logger.Warn("unexport engine", "path", string(e.path), "error", err)
	}
	if err := f.mgr.Destroy(e.session.ID()); err != nil && !errors.Is(err, native.ErrNoSession) {
		f.logger.Warn("destroy session", "path", string(e.path), "error", err)
	}
	f.logger.Info("engine destroyed", "path", string(e.path))
}

// Engine returns the engine exported at path.
func (f *Factory) Engine(path dbus.ObjectPath) (*Engine, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.engines[path]
	return e, ok
}

// Engines returns the number of live engines.
func (f *Factory) Engines() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

// Close destroys every engine.
func (f *Factory) Close() {
	f.mu.Lock()
	engines := make([]*Engine, 0, len(f.engines))
	for _, e := range f.engines {
		engines = append(engines, e)
	}
	f.mu.Unlock()
	for _, e := range engines {
		f.destroyEngine(e)
	}
}
