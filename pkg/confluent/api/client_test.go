package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient("https://api.example.com", Credentials{})
	assert.NoError(t, err)

	for _, bad := range []string{"", "api.example.com", "://nope", "/just/a/path"} {
		_, err := NewClient(bad, Credentials{})
		assert.Error(t, err, "base URL %q must be rejected", bad)
	}
}

func TestClientAppliesBasicAuth(t *testing.T) {
	t.Parallel()

	var gotUser, gotPass string
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotAuth = r.BasicAuth()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Credentials{Key: "api-key", Secret: "api-secret"})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "/ping", nil, &out))
	assert.True(t, gotAuth)
	assert.Equal(t, "api-key", gotUser)
	assert.Equal(t, "api-secret", gotPass)
}

func TestClientOmitsAuthWithoutCredentials(t *testing.T) {
	t.Parallel()

	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, gotAuth = r.BasicAuth()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Credentials{})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "/ping", nil, &out))
	assert.False(t, gotAuth)
}

func TestClientJoinsPathsAndQuery(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/base/", Credentials{})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "subjects", map[string][]string{"deleted": {"true"}}, &out))
	assert.Equal(t, "/base/subjects", gotPath)
	assert.Equal(t, "deleted=true", gotQuery)
}

func TestClientPostEncodesBody(t *testing.T) {
	t.Parallel()

	var gotBody, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"created":true}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Credentials{})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, client.Post(context.Background(), "/things", map[string]string{"name": "x"}, &out))
	assert.JSONEq(t, `{"name":"x"}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{"created": true}, out)
}

func TestClientSurfacesErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"already exists"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Credentials{})
	require.NoError(t, err)

	err = client.Delete(context.Background(), "/things/x")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "already exists")
}
