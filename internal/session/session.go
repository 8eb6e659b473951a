// Package session drives one engine session on behalf of a frontend.
//
// A Session feeds key events to the engine, converts whatever the engine
// reports back into proto values through a marshal.Registry, and hands the
// resulting messages to the frontend. Committed text is optionally written to
// the commit history.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"rimebridge/internal/marshal"
	"rimebridge/internal/metrics"
	"rimebridge/internal/native"
	"rimebridge/internal/proto"
	"rimebridge/internal/schema"
	"rimebridge/internal/store"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session: closed")

// Handler receives the messages a session produces.
type Handler func(proto.Message)

// History stores committed text.
type History interface {
	InsertCommit(c *store.CommitRecord) (int64, error)
}

type options struct {
	registry marshal.Registry
	history  History
	catalog  *schema.Catalog
	metrics  *metrics.Metrics
	logger   *slog.Logger
	handler  Handler
}

// Option configures a Session or a Manager.
type Option func(*options)

// WithRegistry sets the registry used to build host values.
func WithRegistry(r marshal.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithHistory records non-empty commits.
func WithHistory(h History) Option {
	return func(o *options) { o.history = h }
}

// WithCatalog sets the schema catalog used when the engine reports no schemas.
func WithCatalog(c *schema.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHandler sets the message handler.
func WithHandler(h Handler) Option {
	return func(o *options) { o.handler = h }
}

func buildOptions(opts []Option) options {
	o := options{
		registry: marshal.DefaultRegistry{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New(nil)
	}
	return o
}

// Session owns one engine session.
type Session struct {
	engine native.Engine
	id     native.SessionID
	opts   options
	logger *slog.Logger

	mu          sync.Mutex
	closed      bool
	lastPreedit string
}

// New creates an engine session.
func New(engine native.Engine, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	id, err := engine.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	o.metrics.SessionStarted()
	s := &Session{
		engine: engine,
		id:     id,
		opts:   o,
		logger: o.logger.With("session", uint64(id)),
	}
	s.logger.Debug("session created")
	return s, nil
}

// ID returns the engine's session ID.
func (s *Session) ID() native.SessionID {
	return s.id
}

func (s *Session) dispatch(m proto.Message) {
	if s.opts.handler != nil {
		s.opts.handler(m)
	}
}

// ProcessKey runs one key event through the engine. A handled key produces a
// ResponseMessage with the commit, context and status the engine reports
// afterwards; an unhandled key produces a KeyMessage so the frontend can pass
// it on. Both are sent to the handler and returned.
func (s *Session) ProcessKey(keycode, mask int) (proto.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	handled, err := s.engine.ProcessKey(s.id, keycode, mask)
	if err != nil {
		return nil, fmt.Errorf("process key: %w", err)
	}
	s.opts.metrics.RecordKey(handled)

	var msg proto.Message
	if handled {
		resp, err := s.response()
		if err != nil {
			return nil, err
		}
		s.record(resp)
		msg = resp
	} else {
		msg = proto.NewMessage(proto.MessageKey, []any{keycode, mask, s.engine.KeyUnicode(keycode)})
	}
	s.dispatch(msg)
	return msg, nil
}

// SelectCandidate picks the index-th candidate of the current menu page.
// When the engine selects it, the resulting ResponseMessage is sent to the
// handler and returned; otherwise the message is nil.
func (s *Session) SelectCandidate(index int) (proto.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	ok, err := s.engine.SelectCandidateOnCurrentPage(s.id, index)
	if err != nil {
		return nil, fmt.Errorf("select candidate: %w", err)
	}
	if !ok {
		return nil, nil
	}
	resp, err := s.response()
	if err != nil {
		return nil, err
	}
	s.record(resp)
	s.dispatch(resp)
	return resp, nil
}

// response collects commit, context and status. Missing snapshots leave the
// corresponding zero value.
func (s *Session) response() (proto.ResponseMessage, error) {
	reg := s.opts.registry
	var commit proto.Commit
	var ctx proto.Context
	var status proto.Status

	c, ok, err := s.engine.Commit(s.id)
	if err != nil {
		return proto.ResponseMessage{}, fmt.Errorf("get commit: %w", err)
	}
	if ok {
		commit = marshal.Commit(reg, c)
		s.opts.metrics.RecordConversion("commit")
	}

	nctx, ok, err := s.engine.Context(s.id)
	if err != nil {
		return proto.ResponseMessage{}, fmt.Errorf("get context: %w", err)
	}
	if ok {
		ctx = marshal.Context(reg, nctx)
		s.opts.metrics.RecordConversion("context")
	}

	st, ok, err := s.engine.Status(s.id)
	if err != nil {
		return proto.ResponseMessage{}, fmt.Errorf("get status: %w", err)
	}
	if ok {
		status = marshal.Status(reg, st)
		s.opts.metrics.RecordConversion("status")
	}

	msg := proto.NewMessage(proto.MessageResponse, []any{commit, ctx, status})
	return msg.(proto.ResponseMessage), nil
}

func (s *Session) record(resp proto.ResponseMessage) {
	preedit := s.lastPreedit
	s.lastPreedit = resp.Context.Composition.Preedit

	text := resp.Commit.Text
	if text == "" {
		return
	}
	s.opts.metrics.RecordCommit()
	s.logger.Debug("commit", "commit_text", text, "schema", resp.Status.SchemaID)

	if s.opts.history == nil {
		return
	}
	_, err := s.opts.history.InsertCommit(&store.CommitRecord{
		Text:     text,
		Preedit:  preedit,
		SchemaID: resp.Status.SchemaID,
		Session:  uint64(s.id),
	})
	s.opts.metrics.RecordHistoryWrite(err)
	if err != nil {
		s.logger.Warn("failed to record commit", "error", err)
	}
}

// Context returns the current composition and menu.
func (s *Session) Context() (proto.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return proto.Context{}, ErrClosed
	}
	c, ok, err := s.engine.Context(s.id)
	if err != nil || !ok {
		return proto.Context{}, err
	}
	s.opts.metrics.RecordConversion("context")
	return marshal.Context(s.opts.registry, c), nil
}

// Status returns the current status.
func (s *Session) Status() (proto.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return proto.Status{}, ErrClosed
	}
	st, ok, err := s.engine.Status(s.id)
	if err != nil || !ok {
		return proto.Status{}, err
	}
	s.opts.metrics.RecordConversion("status")
	return marshal.Status(s.opts.registry, st), nil
}

// SchemaList returns the engine's schema list, or the catalog's selected
// schemas when the engine has none.
func (s *Session) SchemaList() ([]proto.SchemaListItem, error) {
	l, ok, err := s.engine.SchemaList()
	if err != nil {
		return nil, fmt.Errorf("get schema list: %w", err)
	}
	if !ok {
		if s.opts.catalog == nil {
			return nil, schema.ErrNoSchemas
		}
		l = s.opts.catalog.Selected()
	}
	s.opts.metrics.RecordConversion("schema_list")
	return marshal.SchemaList(s.opts.registry, l), nil
}

// SelectSchema switches the session's schema. It reports false when the
// engine does not know the schema.
func (s *Session) SelectSchema(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	ok, err := s.engine.SelectSchema(s.id, id)
	if err != nil {
		return false, fmt.Errorf("select schema %s: %w", id, err)
	}
	if ok {
		s.lastPreedit = ""
	}
	return ok, nil
}

// SetOption sets a boolean engine option such as ascii_mode.
func (s *Session) SetOption(option string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.engine.SetOption(s.id, option, value)
}

// Option reads a boolean engine option.
func (s *Session) Option(option string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	return s.engine.Option(s.id, option)
}

// ClearComposition drops the pending input.
func (s *Session) ClearComposition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.lastPreedit = ""
	return s.engine.ClearComposition(s.id)
}

// Notify decodes an engine notification and sends it to the handler.
func (s *Session) Notify(n native.Notification) proto.Message {
	msg := proto.NewMessage(proto.ParseMessageType(n.Type), []any{n.Value})
	if _, unknown := msg.(proto.UnknownMessage); unknown {
		s.logger.Debug("unrecognized notification", "type", n.Type, "value", n.Value)
	}
	s.dispatch(msg)
	return msg
}

// Close destroys the engine session. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.opts.metrics.SessionEnded()
	if err := s.engine.DestroySession(s.id); err != nil && !errors.Is(err, native.ErrNoSession) {
		return fmt.Errorf("destroy session: %w", err)
	}
	s.logger.Debug("session closed")
	return nil
}
