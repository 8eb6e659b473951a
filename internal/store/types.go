// Package store provides SQLite-based commit history for rimebridge.
package store

import "time"

// CommitRecord is one text committed by an engine session.
type CommitRecord struct {
	ID        int64
	Text      string
	Preedit   string
	SchemaID  string
	Session   uint64
	CreatedAt time.Time
}

// Frequency is a committed text and how often it was committed.
type Frequency struct {
	Text  string
	Count int64
	Last  time.Time
}
