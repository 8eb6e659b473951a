package opencc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Entry is one dictionary line: a key and its candidate values.
type Entry struct {
	Key    string
	Values []string
}

// Lexicon is a dictionary sorted by key.
type Lexicon []Entry

const packedMagic = "OCD2Z\x00"

// ParseText reads a text dictionary: one "key<TAB>value value ..." per line.
// Blank lines are skipped.
func ParseText(r io.Reader) (Lexicon, error) {
	var lex Lexicon
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		key, rest, ok := strings.Cut(text, "\t")
		if !ok || key == "" {
			return nil, &Exception{Message: fmt.Sprintf("Invalid format in line %d", line)}
		}
		values := strings.Fields(rest)
		if len(values) == 0 {
			return nil, &Exception{Message: fmt.Sprintf("Invalid format in line %d", line)}
		}
		lex = append(lex, Entry{Key: key, Values: values})
	}
	if err := sc.Err(); err != nil {
		return nil, &Exception{Message: fmt.Sprintf("Invalid format in line %d: %v", line+1, err)}
	}
	lex.sort()
	return lex, nil
}

// WriteText writes lex in the text format.
func (lex Lexicon) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	// bufio.Writer keeps the first write error and Flush returns it.
	for _, e := range lex {
		bw.WriteString(e.Key)
		bw.WriteByte('\t')
		bw.WriteString(strings.Join(e.Values, " "))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (lex Lexicon) sort() {
	sort.SliceStable(lex, func(i, j int) bool { return lex[i].Key < lex[j].Key })
}

// Pack encodes lex as a zstd-compressed packed dictionary.
func (lex Lexicon) Pack() ([]byte, error) {
	var raw bytes.Buffer
	raw.WriteString(packedMagic)
	putUvarint(&raw, uint64(len(lex)))
	for _, e := range lex {
		putString(&raw, e.Key)
		putUvarint(&raw, uint64(len(e.Values)))
		for _, v := range e.Values {
			putString(&raw, v)
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, &Exception{Message: "zstd encoder: " + err.Error()}
	}
	defer enc.Close()
	return enc.EncodeAll(raw.Bytes(), nil), nil
}

// Unpack decodes a packed dictionary produced by Pack.
func Unpack(data []byte) (Lexicon, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, &Exception{Message: "zstd decoder: " + err.Error()}
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil || !bytes.HasPrefix(raw, []byte(packedMagic)) {
		return nil, &Exception{Message: "Invalid OpenCC dictionary header"}
	}

	r := bytes.NewReader(raw[len(packedMagic):])
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, corrupt()
	}
	lex := make(Lexicon, 0, min(n, uint64(r.Len())))
	for i := uint64(0); i < n; i++ {
		key, err := getString(r)
		if err != nil {
			return nil, err
		}
		nv, err := binary.ReadUvarint(r)
		if err != nil || nv > uint64(r.Len()) {
			return nil, corrupt()
		}
		values := make([]string, nv)
		for j := range values {
			if values[j], err = getString(r); err != nil {
				return nil, err
			}
		}
		lex = append(lex, Entry{Key: key, Values: values})
	}
	return lex, nil
}

func corrupt() error {
	return &Exception{Message: "Invalid OpenCC dictionary (truncated)"}
}

func putUvarint(b *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	b.Write(tmp[:binary.PutUvarint(tmp[:], v)])
}

func putString(b *bytes.Buffer, s string) {
	putUvarint(b, uint64(len(s)))
	b.WriteString(s)
}

func getString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil || n > uint64(r.Len()) {
		return "", corrupt()
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", corrupt()
	}
	return string(buf), nil
}
