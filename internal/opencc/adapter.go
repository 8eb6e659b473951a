package opencc

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rimebridge/internal/metrics"
)

// Error is the host-level failure of a conversion. Message is the library's
// exception message, unchanged.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Mode selects the direction of a dictionary conversion.
type Mode int

const (
	// ModePack converts a text dictionary to the packed format.
	ModePack Mode = iota
	// ModeUnpack converts a packed dictionary to text.
	ModeUnpack
)

func (m Mode) String() string {
	switch m {
	case ModePack:
		return "pack"
	case ModeUnpack:
		return "unpack"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Adapter wraps a Library and translates its exceptions.
type Adapter struct {
	lib     Library
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithMetrics records operation counts and latency in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// NewAdapter returns an Adapter over lib.
func NewAdapter(lib Library, opts ...Option) *Adapter {
	a := &Adapter{lib: lib, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ConvertText converts input with the named configuration. The converter is
// released before returning whether or not conversion succeeded. On a library
// exception it returns "" and an *Error with the exception's message.
func (a *Adapter) ConvertText(input, configName string) (out string, err error) {
	start := time.Now()
	defer func() { a.record("convert_text", start, err) }()

	conv, err := a.lib.NewConverter(configName)
	if err != nil {
		return "", a.translate(err, "config", configName)
	}
	defer conv.Close()

	out, err = conv.Convert(input)
	if err != nil {
		return "", a.translate(err, "config", configName)
	}
	return out, nil
}

// ConvertDictionary converts the dictionary at src into dst. ModeUnpack reads
// the backend's packed format and writes text; ModePack does the reverse.
func (a *Adapter) ConvertDictionary(src, dst string, mode Mode) (err error) {
	start := time.Now()
	defer func() { a.record("convert_dictionary", start, err) }()

	packed := a.lib.PackedFormat()
	from, to := FormatText, packed
	if mode == ModeUnpack {
		from, to = packed, FormatText
	}

	if err := a.lib.ConvertDictionary(src, dst, from, to); err != nil {
		return a.translate(err, "src", src, "mode", mode.String())
	}
	a.logger.Debug("dictionary converted", "src", src, "dst", dst, "from", from, "to", to)
	return nil
}

// translate maps a library exception to *Error. Other errors are returned
// as they are.
func (a *Adapter) translate(err error, attrs ...any) error {
	var exc *Exception
	if !errors.As(err, &exc) {
		return err
	}
	a.logger.Warn("opencc exception", append(attrs, "error", exc.Message)...)
	return &Error{Message: exc.Message}
}

func (a *Adapter) record(op string, start time.Time, err error) {
	if a.metrics == nil {
		return
	}
	var e *Error
	status := "ok"
	switch {
	case errors.As(err, &e):
		status = "exception"
	case err != nil:
		status = "error"
	}
	a.metrics.RecordOpenCC(op, status, time.Since(start))
}
