package provider

import (
	"encoding/base64"
	"strings"
)

// MessageRef is the id pair returned by the list call; full content requires
// a separate fetch.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// ListResponse is the provider's message list page.
type ListResponse struct {
	Messages           []MessageRef `json:"messages"`
	NextPageToken      string       `json:"nextPageToken"`
	ResultSizeEstimate int64        `json:"resultSizeEstimate"`
}

// Message is one email in "full" format: headers plus the MIME payload tree.
type Message struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds"`
	Snippet      string   `json:"snippet"`
	InternalDate string   `json:"internalDate"`
	Payload      *Part    `json:"payload"`
}

// Part is one node of the MIME tree. A node either carries child Parts
// (multipart container) or a Body (leaf).
type Part struct {
	PartID   string    `json:"partId"`
	MIMEType string    `json:"mimeType"`
	Filename string    `json:"filename"`
	Headers  []Header  `json:"headers"`
	Body     *PartBody `json:"body"`
	Parts    []*Part   `json:"parts"`
}

// Header is a single RFC822 header on a message or part.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PartBody carries either inline base64url data or an attachment id to be
// fetched separately.
type PartBody struct {
	AttachmentID string `json:"attachmentId"`
	Size         int64  `json:"size"`
	Data         string `json:"data"`
}

// AttachmentData is the response of the per-attachment fetch call.
type AttachmentData struct {
	Size int64  `json:"size"`
	Data string `json:"data"`
}

// Header returns the first header with the given name, case-insensitively.
func (m *Message) Header(name string) string {
	if m.Payload == nil {
		return ""
	}
	return m.Payload.Header(name)
}

// Header returns the first part header with the given name, case-insensitively.
func (p *Part) Header(name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// HasBodyData reports whether the part carries inline body bytes.
func (p *Part) HasBodyData() bool {
	return p.Body != nil && p.Body.Data != ""
}

// DecodeBody decodes the provider's URL-safe base64 body data. Both padded
// and unpadded forms appear in the wild, so padding is stripped first.
func DecodeBody(data string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
}
