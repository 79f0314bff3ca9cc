package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Source that does not hold the named secret.
var ErrNotFound = errors.New("secret not found")

// Source looks secrets up by name.
//
// Sources are consulted in order by a Resolver; the first one that returns
// a value wins. A source returns an error wrapping ErrNotFound when it
// simply does not have the secret, so the resolver can fall through to the
// next one. Any other error is reported.
type Source interface {
	// Lookup returns the value of the named secret.
	Lookup(ctx context.Context, name string) (string, error)

	// Name identifies the source in logs (env, dir).
	Name() string
}
