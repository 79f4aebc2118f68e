package driven

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by the auth error envelopes.
const (
	TextCodeUnauthenticated        = "UNAUTHENTICATED"
	TextCodeInvalidToken           = "INVALID_TOKEN"
	TextCodeAuthServiceUnavailable = "AUTH_SERVICE_UNAVAILABLE"
)

// Unauthenticated reports a request that carried no Authorization header.
func Unauthenticated() error {
	return goerrors.New("no token provided", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(TextCodeUnauthenticated)
}

// InvalidToken reports a token the identity service rejected with status.
func InvalidToken(status int) error {
	return goerrors.New("invalid access token", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(TextCodeInvalidToken).
		WithMetadata(map[string]any{"upstream_status": status})
}

// AuthServiceUnavailable reports that the identity service could not be
// reached or answered without a usable identity.
func AuthServiceUnavailable(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, "auth service unavailable").
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(TextCodeAuthServiceUnavailable)
}
