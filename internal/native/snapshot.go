package native

// String returns a pointer to a copy of s. It is the Go-side equivalent of a
// non-null char* and is mostly useful when building snapshots by hand.
func String(s string) *string {
	return &s
}
