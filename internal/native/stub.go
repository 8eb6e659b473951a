//go:build !librime

package native

// Open reports ErrUnavailable: the binary was built without the librime tag.
func Open(Traits, NotificationHandler) (Engine, error) {
	return nil, ErrUnavailable
}

// Keys reports ErrUnavailable; callers fall back to the pure-Go key table.
func Keys() (KeyTable, error) {
	return nil, ErrUnavailable
}
