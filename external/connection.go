package external

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Connection.GetFile when the named object
// does not exist in the backing store, distinguishing "not uploaded
// yet" from a transport failure.
var ErrNotFound = errors.New("external: object not found")

// Connection is the read-only surface the state sync core needs from
// an external object store. Implementations are not expected to
// support writes; uploading state dumps is a different node role.
type Connection interface {
	// GetFile fetches the full contents of the object at key.
	GetFile(ctx context.Context, key string) ([]byte, error)
}
