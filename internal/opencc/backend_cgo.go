//go:build opencc

package opencc

/*
#cgo pkg-config: opencc
#cgo CXXFLAGS: -std=c++14
#include <stdlib.h>
#include "opencc_shim.h"
*/
import "C"

import (
	"unsafe"
)

// nativeLibrary binds libopencc through a C++ shim that reports
// opencc::Exception messages as C strings.
type nativeLibrary struct{}

// NewLibrary returns the backend selected at build time.
func NewLibrary() Library {
	return nativeLibrary{}
}

func (nativeLibrary) PackedFormat() string {
	return FormatPacked
}

// takeError converts a shim error string into an *Exception and frees it.
func takeError(cerr *C.char) error {
	msg := C.GoString(cerr)
	C.free(unsafe.Pointer(cerr))
	return &Exception{Message: msg}
}

func (nativeLibrary) NewConverter(config string) (Converter, error) {
	cconfig := C.CString(config)
	defer C.free(unsafe.Pointer(cconfig))

	var cerr *C.char
	cc := C.rb_opencc_new(cconfig, &cerr)
	if cc == nil {
		return nil, takeError(cerr)
	}
	return &nativeConverter{cc: cc}, nil
}

type nativeConverter struct {
	cc *C.rb_opencc
}

func (c *nativeConverter) Convert(input string) (string, error) {
	cinput := C.CString(input)
	defer C.free(unsafe.Pointer(cinput))

	var cerr *C.char
	out := C.rb_opencc_convert(c.cc, cinput, C.size_t(len(input)), &cerr)
	if out == nil {
		return "", takeError(cerr)
	}
	defer C.free(unsafe.Pointer(out))
	return C.GoString(out), nil
}

func (c *nativeConverter) Close() error {
	if c.cc != nil {
		C.rb_opencc_free(c.cc)
		c.cc = nil
	}
	return nil
}

func (nativeLibrary) ConvertDictionary(src, dst, from, to string) error {
	csrc, cdst := C.CString(src), C.CString(dst)
	cfrom, cto := C.CString(from), C.CString(to)
	defer func() {
		for _, p := range []*C.char{csrc, cdst, cfrom, cto} {
			C.free(unsafe.Pointer(p))
		}
	}()

	var cerr *C.char
	if C.rb_opencc_convert_dictionary(csrc, cdst, cfrom, cto, &cerr) != 0 {
		return takeError(cerr)
	}
	return nil
}
