//go:build !librime

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenWithoutLibrime(t *testing.T) {
	e, err := Open(Traits{AppName: "rime.test"}, nil)
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrUnavailable)

	keys, err := Keys()
	assert.Nil(t, keys)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestString(t *testing.T) {
	s := "luna_pinyin"
	p := String(s)
	s = "changed"
	assert.Equal(t, "luna_pinyin", *p)
}
