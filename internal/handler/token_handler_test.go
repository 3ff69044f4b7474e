package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-chat-room/pkg/response"
)

type issueEnvelope struct {
	Success bool               `json:"success"`
	Data    IssueTokenResponse `json:"data"`
}

type validateEnvelope struct {
	Success bool                  `json:"success"`
	Data    ValidateTokenResponse `json:"data"`
}

func (e *testEnv) postJSON(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := e.client.Post(e.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestTokenHandler_IssueAndValidate(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/v1/token", `{"identifier":"foo@example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issued issueEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issued))
	assert.True(t, issued.Success)
	assert.Equal(t, fooKey, issued.Data.RoomKey)
	assert.NotEmpty(t, issued.Data.Token)
	assert.Positive(t, issued.Data.ExpiresAt)

	resp = env.postJSON(t, "/api/v1/token/validate", `{"token":"`+issued.Data.Token+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var validated validateEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&validated))
	assert.Equal(t, "foo@example.com", validated.Data.Identifier)
	assert.Equal(t, fooKey, validated.Data.RoomKey)
}

func TestTokenHandler_IssueFromForm(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.PostForm(env.srv.URL+"/api/v1/token", url.Values{"identifier": {"foo@example.com"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var issued issueEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issued))
	assert.Equal(t, fooKey, issued.Data.RoomKey)
}

func TestTokenHandler_IssueErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "empty identifier", body: `{"identifier":"  "}`, status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "invalid json", body: `{"identifier":`, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.postJSON(t, "/api/v1/token", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}
}

func TestTokenHandler_ValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "empty token", body: `{"token":""}`, status: http.StatusBadRequest},
		{name: "garbage token", body: `{"token":"not.a.token"}`, status: http.StatusUnauthorized},
		{name: "invalid json", body: `nope`, status: http.StatusUnauthorized},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.postJSON(t, "/api/v1/token/validate", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestTokenHandler_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/api/v1/token")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
	assert.Equal(t, "METHOD_NOT_ALLOWED", errorCode(t, resp))
}
