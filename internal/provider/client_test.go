package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/messages", r.URL.Path)
		assert.Equal(t, "is:unread", r.URL.Query().Get("q"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ListResponse{Messages: []MessageRef{
			{ID: "m1", ThreadID: "t1"},
			{ID: "m2", ThreadID: "t2"},
		}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	refs, err := c.ListMessages(context.Background(), "at-123", "is:unread", 50)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "m1", refs[0].ID)
	assert.Equal(t, "t2", refs[1].ThreadID)
}

func TestGetMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/messages/m1", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		json.NewEncoder(w).Encode(Message{
			ID:       "m1",
			ThreadID: "t1",
			Payload: &Part{
				MIMEType: "text/plain",
				Headers:  []Header{{Name: "Subject", Value: "hello"}},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	msg, err := c.GetMessage(context.Background(), "at", "m1")
	require.NoError(t, err)
	assert.Equal(t, "t1", msg.ThreadID)
	assert.Equal(t, "hello", msg.Header("Subject"))
}

func TestGetAttachmentDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/messages/m1/attachments/a1", r.URL.Path)
		json.NewEncoder(w).Encode(AttachmentData{
			Size: 9,
			Data: base64.RawURLEncoding.EncodeToString([]byte("pdf bytes")),
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	data, err := c.GetAttachment(context.Background(), "at", "m1", "a1")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)
}

func TestSendCarriesThreadID(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/me/messages/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	require.NoError(t, c.Send(context.Background(), "at", "cmF3", "thread-9"))
	assert.Equal(t, "cmF3", payload["raw"])
	assert.Equal(t, "thread-9", payload["threadId"])
}

func TestSendErrorCarriesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	err := c.Send(context.Background(), "at", "cmF3", "")

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, http.StatusBadRequest, sendErr.StatusCode)
}

func TestModifyLabels(t *testing.T) {
	var payload map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/messages/m1/modify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	require.NoError(t, c.ModifyLabels(context.Background(), "at", "m1", nil, []string{"UNREAD", "INBOX"}))
	assert.Equal(t, []string{"UNREAD", "INBOX"}, payload["removeLabelIds"])
	assert.NotContains(t, payload, "addLabelIds")
}

func TestFetchErrorOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second)
	_, err := c.ListMessages(context.Background(), "at", "", 0)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	assert.Equal(t, "list messages", fetchErr.Op)
}

func TestAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "rt-1", r.FormValue("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "at-fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	c := NewClient("http://unused", server.URL, 5*time.Second)
	token, err := c.AccessToken(context.Background(), "acme", "cid", "csecret", "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "at-fresh", token)
}

func TestAccessTokenRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer server.Close()

	c := NewClient("http://unused", server.URL, 5*time.Second)
	_, err := c.AccessToken(context.Background(), "acme", "cid", "csecret", "revoked")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "acme", authErr.TenantID)
}

func TestAccessTokenMissingClient(t *testing.T) {
	c := NewClient("http://unused", "http://unused", 5*time.Second)
	_, err := c.AccessToken(context.Background(), "acme", "", "", "rt")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestDecodeBody(t *testing.T) {
	unpadded := base64.RawURLEncoding.EncodeToString([]byte("hello~world"))
	got, err := DecodeBody(unpadded)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello~world"), got)

	padded := base64.URLEncoding.EncodeToString([]byte("hi"))
	got, err = DecodeBody(padded)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), got)

	_, err = DecodeBody("not base64!!")
	assert.Error(t, err)
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	assert.ErrorIs(t, &AuthError{TenantID: "t", Err: inner}, inner)
	assert.ErrorIs(t, &FetchError{Op: "get", Err: inner}, inner)
	assert.ErrorIs(t, &SendError{Err: inner}, inner)
}
