// Package provider implements the REST client for the upstream mail provider:
// token refresh, message listing and retrieval, attachment download, raw
// RFC822 send, and label modification.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Mailbox is the provider surface the sync pipeline consumes. Implementations
// must be safe for concurrent use across accounts.
type Mailbox interface {
	// AccessToken exchanges a refresh credential for a short-lived bearer token.
	AccessToken(ctx context.Context, tenantID, clientID, clientSecret, refreshToken string) (string, error)

	// ListMessages returns candidate message refs matching the query.
	ListMessages(ctx context.Context, token, query string, maxResults int) ([]MessageRef, error)

	// GetMessage fetches one message in full format (headers + MIME tree).
	GetMessage(ctx context.Context, token, id string) (*Message, error)

	// GetAttachment fetches one attachment's bytes.
	GetAttachment(ctx context.Context, token, messageID, attachmentID string) ([]byte, error)

	// Send dispatches a base64url-encoded RFC822 message. A non-empty
	// threadID threads the message into an existing conversation.
	Send(ctx context.Context, token, raw, threadID string) error

	// ModifyLabels adds and removes labels on a message.
	ModifyLabels(ctx context.Context, token, messageID string, add, remove []string) error
}

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Client is the HTTP implementation of Mailbox.
type Client struct {
	baseURL    string
	tokenURL   string
	httpClient *http.Client
}

// NewClient creates a provider client. Empty baseURL falls back to the
// provider's public endpoint.
func NewClient(baseURL, tokenURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		tokenURL:   tokenURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListMessages returns candidate message refs matching the query string.
func (c *Client) ListMessages(ctx context.Context, token, query string, maxResults int) ([]MessageRef, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(maxResults))
	}
	endpoint := fmt.Sprintf("%s/users/me/messages?%s", c.baseURL, params.Encode())

	var list ListResponse
	if err := c.getJSON(ctx, token, "list messages", endpoint, &list); err != nil {
		return nil, err
	}
	return list.Messages, nil
}

// GetMessage fetches one message with its full payload tree.
func (c *Client) GetMessage(ctx context.Context, token, id string) (*Message, error) {
	endpoint := fmt.Sprintf("%s/users/me/messages/%s?format=full", c.baseURL, url.PathEscape(id))

	var msg Message
	if err := c.getJSON(ctx, token, "get message", endpoint, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetAttachment fetches and decodes one attachment's bytes.
func (c *Client) GetAttachment(ctx context.Context, token, messageID, attachmentID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/users/me/messages/%s/attachments/%s",
		c.baseURL, url.PathEscape(messageID), url.PathEscape(attachmentID))

	var att AttachmentData
	if err := c.getJSON(ctx, token, "get attachment", endpoint, &att); err != nil {
		return nil, err
	}
	data, err := DecodeBody(att.Data)
	if err != nil {
		return nil, &FetchError{Op: "get attachment", Err: fmt.Errorf("failed to decode attachment data: %w", err)}
	}
	return data, nil
}

// Send dispatches a raw base64url RFC822 message through the provider.
func (c *Client) Send(ctx context.Context, token, raw, threadID string) error {
	payload := map[string]string{"raw": raw}
	if threadID != "" {
		payload["threadId"] = threadID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Err: fmt.Errorf("failed to marshal send payload: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/users/me/messages/send", c.baseURL)
	resp, err := c.do(ctx, token, http.MethodPost, endpoint, body)
	if err != nil {
		return &SendError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &SendError{StatusCode: resp.StatusCode}
	}
	return nil
}

// ModifyLabels adds and removes labels on a message. Used to archive
// processed mail out of the inbox view.
func (c *Client) ModifyLabels(ctx context.Context, token, messageID string, add, remove []string) error {
	payload := map[string][]string{}
	if len(add) > 0 {
		payload["addLabelIds"] = add
	}
	if len(remove) > 0 {
		payload["removeLabelIds"] = remove
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &FetchError{Op: "modify labels", Err: err}
	}

	endpoint := fmt.Sprintf("%s/users/me/messages/%s/modify", c.baseURL, url.PathEscape(messageID))
	resp, err := c.do(ctx, token, http.MethodPost, endpoint, body)
	if err != nil {
		return &FetchError{Op: "modify labels", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{Op: "modify labels", StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, token, op, endpoint string, out interface{}) error {
	resp, err := c.do(ctx, token, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &FetchError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, token, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}
