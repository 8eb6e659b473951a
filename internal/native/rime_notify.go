//go:build librime

package native

/*
#include <stdint.h>
*/
import "C"

//export goRimeNotify
func goRimeNotify(session C.uintptr_t, typ, value *C.char) {
	dispatch(Notification{
		SessionID: SessionID(session),
		Type:      C.GoString(typ),
		Value:     C.GoString(value),
	})
}
