// Package authapi resolves caller identities by delegating token verification
// to an external identity service over HTTP.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/keyshelf/internal/domain/model"
	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

const (
	// DefaultTimeout bounds a single identity lookup.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20 // 1 MiB
)

// Compile-time interface satisfaction check.
var _ driven.IdentityResolver = (*Resolver)(nil)

// HTTPDoer is the subset of *http.Client the resolver needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver posts the caller's Authorization header to the identity endpoint.
// It never retries; a failed call is reported to the caller as-is.
type Resolver struct {
	endpoint string
	client   HTTPDoer
	timeout  time.Duration
}

// NewResolver creates a Resolver for endpoint. A nil client uses http.DefaultClient
// and a non-positive timeout uses DefaultTimeout.
func NewResolver(endpoint string, client HTTPDoer, timeout time.Duration) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		endpoint: endpoint,
		client:   client,
		timeout:  timeout,
	}
}

// Resolve verifies authorization with the identity service and returns the
// caller identity found in the response body.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (model.Identity, error) {
	if strings.TrimSpace(authorization) == "" {
		return model.Identity{}, driven.Unauthenticated()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader([]byte("{}")))
	if err != nil {
		return model.Identity{}, driven.AuthServiceUnavailable(fmt.Errorf("build auth request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", authorization)

	resp, err := r.client.Do(req)
	if err != nil {
		return model.Identity{}, driven.AuthServiceUnavailable(fmt.Errorf("call auth service: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.Identity{}, driven.AuthServiceUnavailable(fmt.Errorf("read auth response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Identity{}, driven.InvalidToken(resp.StatusCode)
	}

	userID, err := extractUserID(body)
	if err != nil {
		return model.Identity{}, driven.AuthServiceUnavailable(err)
	}

	return model.Identity{UserID: userID}, nil
}

var (
	errNoIdentity      = errors.New("auth response carries no user id")
	errNonIntegerIdent = errors.New("auth response carries a non-integer numeric user id")
)

// identityKeys are checked in order; nested envelopes under "data" and "user"
// are searched after the top level.
var identityKeys = []string{"userId", "user_id", "id", "sub"}

func extractUserID(body []byte) (string, error) {
	// UseNumber keeps numeric ids exact; float64 loses precision above 2^53.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}

	id, err := lookupID(payload)
	if err != nil || id != "" {
		return id, err
	}
	for _, envelope := range []string{"data", "user"} {
		if nested, ok := payload[envelope].(map[string]any); ok {
			id, err := lookupID(nested)
			if err != nil || id != "" {
				return id, err
			}
		}
	}

	return "", errNoIdentity
}

func lookupID(m map[string]any) (string, error) {
	for _, key := range identityKeys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s, nil
			}
		case json.Number:
			s := v.String()
			if strings.ContainsAny(s, ".eE") {
				return "", fmt.Errorf("%w: %s=%s", errNonIntegerIdent, key, s)
			}
			return s, nil
		}
	}
	return "", nil
}
