package opencc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDict = "汉\t漢\n" +
	"发\t發 髮\n" +
	"\n" +
	"台\t臺 檯 颱\r\n"

func TestParseText(t *testing.T) {
	lex, err := ParseText(strings.NewReader(sampleDict))
	require.NoError(t, err)

	require.Len(t, lex, 3)
	// sorted by key bytes
	assert.Equal(t, Entry{Key: "发", Values: []string{"發", "髮"}}, lex[0])
	assert.Equal(t, Entry{Key: "台", Values: []string{"臺", "檯", "颱"}}, lex[1])
	assert.Equal(t, Entry{Key: "汉", Values: []string{"漢"}}, lex[2])
}

func TestParseTextInvalidLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no tab", "汉 漢\n", "Invalid format in line 1"},
		{"no values", "汉\t漢\n发\t\n", "Invalid format in line 2"},
		{"empty key", "\t漢\n", "Invalid format in line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(strings.NewReader(tt.input))
			assert.Equal(t, &Exception{Message: tt.want}, err)
		})
	}
}

func TestWriteText(t *testing.T) {
	lex := Lexicon{{Key: "发", Values: []string{"發", "髮"}}}
	var buf bytes.Buffer
	require.NoError(t, lex.WriteText(&buf))
	assert.Equal(t, "发\t發 髮\n", buf.String())
}

func TestPackUnpack(t *testing.T) {
	lex, err := ParseText(strings.NewReader(sampleDict))
	require.NoError(t, err)

	packed, err := lex.Pack()
	require.NoError(t, err)

	got, err := Unpack(packed)
	require.NoError(t, err)
	assert.Equal(t, lex, got)
}

func TestUnpackRejectsGarbage(t *testing.T) {
	_, err := Unpack([]byte("definitely not zstd"))
	var exc *Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "Invalid OpenCC dictionary header", exc.Message)
}

func TestUnpackTruncated(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteString(packedMagic)
	putUvarint(&raw, 5)
	putString(&raw, "汉")

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	data := enc.EncodeAll(raw.Bytes(), nil)
	require.NoError(t, enc.Close())

	_, err = Unpack(data)
	assert.Equal(t, &Exception{Message: "Invalid OpenCC dictionary (truncated)"}, err)
}

func TestParseTextLineTooLong(t *testing.T) {
	input := "汉\t漢\n发\t" + strings.Repeat("發", 1<<20) + "\n"
	_, err := ParseText(strings.NewReader(input))
	var exc *Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "Invalid format in line 2: bufio.Scanner: token too long", exc.Message)
}
