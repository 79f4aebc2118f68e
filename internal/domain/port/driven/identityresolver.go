package driven

import (
	"context"

	"github.com/ericfisherdev/keyshelf/internal/domain/model"
)

// IdentityResolver verifies a caller's Authorization header value against the
// identity service. Implementations return a go-errors envelope whose Code is
// the HTTP status to surface (401 for rejected tokens, 503 when the identity
// service cannot be reached).
type IdentityResolver interface {
	Resolve(ctx context.Context, authorization string) (model.Identity, error)
}
