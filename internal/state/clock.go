package state

import (
	"github.com/google/uuid"
)

// IDSource hands out annotation ids. Tests swap it for a deterministic
// sequence.
type IDSource func() string

func newAnnotationID() string {
	return "text-" + uuid.NewString()
}
