package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keyshelf/internal/domain/port/driven"
)

func requireEnvelope(t *testing.T, err error, code int, textCode string) {
	t.Helper()
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich), "expected go-errors envelope, got %T", err)
	assert.Equal(t, code, rich.Code)
	assert.Equal(t, textCode, rich.TextCode)
}

func TestResolver_Success(t *testing.T) {
	var gotAuth, gotMethod, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_ = json.NewEncoder(w).Encode(map[string]any{"userId": "u1", "name": "Alice"})
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, srv.Client(), time.Second)
	id, err := r.Resolve(context.Background(), "Bearer tok-1")

	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "{}", gotBody)
}

func TestResolver_IdentityShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "top-level userId", body: `{"userId":"u1"}`, want: "u1"},
		{name: "snake user_id", body: `{"user_id":"u2"}`, want: "u2"},
		{name: "numeric id", body: `{"id":42}`, want: "42"},
		{name: "sub claim", body: `{"sub":"auth0|abc"}`, want: "auth0|abc"},
		{name: "nested data", body: `{"success":true,"data":{"userId":"u3"}}`, want: "u3"},
		{name: "nested user", body: `{"user":{"id":"u4"}}`, want: "u4"},
		{name: "top-level wins over nested", body: `{"userId":"top","data":{"userId":"inner"}}`, want: "top"},
		{name: "numeric id above 2^53", body: `{"userId":9007199254740993}`, want: "9007199254740993"},
		{name: "numeric id at 2^53", body: `{"userId":9007199254740992}`, want: "9007199254740992"},
		{name: "negative numeric id", body: `{"id":-7}`, want: "-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractUserID([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_LargeNumericIDsStayDistinct(t *testing.T) {
	a, err := extractUserID([]byte(`{"userId":9007199254740993}`))
	require.NoError(t, err)
	b, err := extractUserID([]byte(`{"userId":9007199254740992}`))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestResolver_NonIntegerIDsRejected(t *testing.T) {
	for _, body := range []string{`{"userId":1.5}`, `{"userId":2.4}`, `{"data":{"id":1e3}}`} {
		t.Run(body, func(t *testing.T) {
			_, err := extractUserID([]byte(body))
			require.ErrorIs(t, err, errNonIntegerIdent)
		})
	}
}

func TestResolver_NonIntegerIDIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":1.5}`))
	}))
	defer srv.Close()

	_, err := NewResolver(srv.URL, srv.Client(), time.Second).Resolve(context.Background(), "Bearer t")

	requireEnvelope(t, err, http.StatusServiceUnavailable, driven.TextCodeAuthServiceUnavailable)
}

func TestResolver_MissingHeaderMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, srv.Client(), time.Second)
	_, err := r.Resolve(context.Background(), "   ")

	requireEnvelope(t, err, http.StatusUnauthorized, driven.TextCodeUnauthenticated)
	assert.Equal(t, int32(0), calls.Load())
}

func TestResolver_RejectedToken(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		r := NewResolver(srv.URL, srv.Client(), time.Second)
		_, err := r.Resolve(context.Background(), "Bearer bad")
		srv.Close()

		requireEnvelope(t, err, http.StatusUnauthorized, driven.TextCodeInvalidToken)
	}
}

func TestResolver_ServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	r := NewResolver(url, nil, time.Second)
	_, err := r.Resolve(context.Background(), "Bearer tok")

	requireEnvelope(t, err, http.StatusServiceUnavailable, driven.TextCodeAuthServiceUnavailable)
}

func TestResolver_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r := NewResolver(srv.URL, srv.Client(), 50*time.Millisecond)
	start := time.Now()
	_, err := r.Resolve(context.Background(), "Bearer slow")

	requireEnvelope(t, err, http.StatusServiceUnavailable, driven.TextCodeAuthServiceUnavailable)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResolver_SuccessWithoutIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, srv.Client(), time.Second)
	_, err := r.Resolve(context.Background(), "Bearer tok")

	requireEnvelope(t, err, http.StatusServiceUnavailable, driven.TextCodeAuthServiceUnavailable)
}

type failingDoer struct{ err error }

func (f failingDoer) Do(*http.Request) (*http.Response, error) { return nil, f.err }

func TestResolver_DoerErrorIsUnavailable(t *testing.T) {
	r := NewResolver("https://auth.invalid/verify", failingDoer{err: errors.New("dial tcp: refused")}, 0)
	_, err := r.Resolve(context.Background(), "Bearer tok")

	requireEnvelope(t, err, http.StatusServiceUnavailable, driven.TextCodeAuthServiceUnavailable)
	assert.Equal(t, DefaultTimeout, r.timeout)
}
