package model

import (
	"time"

	"github.com/google/uuid"
)

// now is the clock used for record timestamps. Microsecond precision matches
// what Postgres stores, so records round-trip unchanged.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// touch returns a modification timestamp strictly after prev
func touch(prev time.Time) time.Time {
	ts := now()
	if !ts.After(prev) {
		ts = prev.Add(time.Microsecond)
	}
	return ts
}

// newID returns "<prefix>_<uuidv7>". Version 7 UUIDs carry a millisecond
// timestamp followed by random bits.
func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "_" + id.String()
}
