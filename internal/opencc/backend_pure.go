//go:build !opencc

package opencc

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	gocc "github.com/longbridgeapp/opencc"
)

// pureLibrary converts with the embedded dictionaries of
// github.com/longbridgeapp/opencc. Configurations are looked up by their
// stem, so "s2t.json" and "/usr/share/opencc/s2t.json" both load s2t.
type pureLibrary struct{}

// NewLibrary returns the backend selected at build time.
func NewLibrary() Library {
	return pureLibrary{}
}

func (pureLibrary) PackedFormat() string {
	return FormatPackedZstd
}

func (pureLibrary) NewConverter(config string) (Converter, error) {
	cc, err := gocc.New(configStem(config))
	if err != nil {
		return nil, &Exception{Message: fmt.Sprintf("%s not found or not accessible: %v", config, err)}
	}
	return &pureConverter{cc: cc}, nil
}

type pureConverter struct {
	cc *gocc.OpenCC
}

func (c *pureConverter) Convert(input string) (string, error) {
	out, err := c.cc.Convert(input)
	if err != nil {
		return "", &Exception{Message: err.Error()}
	}
	return out, nil
}

func (c *pureConverter) Close() error {
	c.cc = nil
	return nil
}

func (pureLibrary) ConvertDictionary(src, dst, from, to string) error {
	for _, f := range []string{from, to} {
		if f != FormatText && f != FormatPackedZstd {
			return &Exception{Message: fmt.Sprintf("Unknown dictionary format: %s", f)}
		}
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return &Exception{Message: fmt.Sprintf("%s not found or not accessible.", src)}
	}

	var lex Lexicon
	if from == FormatText {
		lex, err = ParseText(bytes.NewReader(data))
	} else {
		lex, err = Unpack(data)
	}
	if err != nil {
		return asException(err)
	}

	var out []byte
	if to == FormatText {
		var buf bytes.Buffer
		if err := lex.WriteText(&buf); err != nil {
			return asException(err)
		}
		out = buf.Bytes()
	} else if out, err = lex.Pack(); err != nil {
		return asException(err)
	}

	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return &Exception{Message: fmt.Sprintf("%s not writable.", dst)}
	}
	return nil
}

// asException passes library exceptions through and wraps anything else so
// the adapter reports it as a conversion failure.
func asException(err error) error {
	var exc *Exception
	if errors.As(err, &exc) {
		return err
	}
	return &Exception{Message: err.Error()}
}
