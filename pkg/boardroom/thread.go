package boardroom

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewThreadID returns a new lexicographically sortable conversation id for
// WithThreadID.
func NewThreadID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// IsThreadID reports whether id was produced by NewThreadID.
func IsThreadID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
