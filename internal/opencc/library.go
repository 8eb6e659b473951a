// Package opencc converts Chinese text and dictionaries through OpenCC.
//
// A Library is the raw conversion backend. It reports native failures as
// *Exception. The Adapter sits in front of it and turns those failures into
// *Error values for callers; anything else a backend returns passes through.
package opencc

import (
	"path/filepath"
	"strings"
)

// Dictionary formats understood by the backends.
const (
	FormatText   = "text"
	FormatPacked = "ocd2"
	// FormatPackedZstd is the packed format of the pure-Go backend.
	FormatPackedZstd = "ocd2z"
)

// Exception is a failure raised by the conversion library itself: a missing
// or malformed configuration, an unreadable dictionary, an unsupported format.
type Exception struct {
	Message string
}

func (e *Exception) Error() string {
	return e.Message
}

// Converter converts text with one loaded configuration. It must be closed.
type Converter interface {
	Convert(input string) (string, error)
	Close() error
}

// Library is a conversion backend.
type Library interface {
	// NewConverter loads the configuration named by config, e.g. "s2t.json".
	NewConverter(config string) (Converter, error)

	// ConvertDictionary reads the dictionary at src in format from and
	// writes it to dst in format to.
	ConvertDictionary(src, dst, from, to string) error

	// PackedFormat is the binary dictionary format of this backend.
	PackedFormat() string
}

// configStem reduces "/usr/share/opencc/s2t.json" to "s2t".
func configStem(config string) string {
	return strings.TrimSuffix(filepath.Base(config), ".json")
}
