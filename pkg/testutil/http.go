// Package testutil holds helpers shared by handler, middleware and
// container-backed tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorBody is the JSON envelope httputil.WriteError produces.
type ErrorBody struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// JSONRequest builds a request for a handler under test. A string or []byte
// body is sent verbatim so malformed payloads can be exercised; any other
// non-nil value is marshaled to JSON.
func JSONRequest(t testing.TB, method, path string, body any) *http.Request {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "marshal request body")
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// Serve runs req through h and returns the recorded response.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// Decode unmarshals the recorded body into T. The body is left readable.
func Decode[T any](t testing.TB, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "decode response: %s", rr.Body.String())
	return out
}

// RequireStatus stops the test when the status differs, printing the body.
func RequireStatus(t testing.TB, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rr.Code, "unexpected status, body: %s", rr.Body.String())
}

// AssertError checks the status and the error code of a failed response.
// An empty description is not compared.
func AssertError(t testing.TB, rr *httptest.ResponseRecorder, status int, code, description string) {
	t.Helper()
	RequireStatus(t, rr, status)
	body := Decode[ErrorBody](t, rr)
	assert.Equal(t, code, body.Code, "unexpected error code")
	if description != "" {
		assert.Equal(t, description, body.Description, "unexpected error description")
	}
}

// AssertNotLeaked fails when any fragment appears in the raw body.
func AssertNotLeaked(t testing.TB, rr *httptest.ResponseRecorder, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		assert.NotContains(t, rr.Body.String(), f)
	}
}
