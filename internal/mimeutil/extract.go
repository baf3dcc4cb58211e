package mimeutil

import (
	"fmt"
	"log"
	"mime"
	"strings"

	"github.com/maildesk-io/maildesk/internal/provider"
)

// NoBodyPlaceholder is recorded when a message carries no usable text at all.
const NoBodyPlaceholder = "no body"

// AttachmentPart is one classified attachment. Data is populated when the
// part carried inline bytes; otherwise AttachmentID must be fetched through
// the provider's per-attachment call.
type AttachmentPart struct {
	Filename     string
	ContentType  string
	AttachmentID string
	Data         []byte
	Size         int64
}

// Content is the result of classifying a message's leaf parts.
type Content struct {
	Body        string
	HTMLBody    string
	Attachments []AttachmentPart
}

// ExtractContent walks the flattened leaf parts of a message and splits them
// into the primary text body and attachments. The first text/plain leaf wins
// as the body; an HTML alternative is kept separately when present. Leaves
// that are neither plain nor HTML text and carry data (inline or deferred)
// become attachments.
func ExtractContent(msg *provider.Message) *Content {
	content := &Content{}
	if msg == nil || msg.Payload == nil {
		content.Body = NoBodyPlaceholder
		return content
	}

	attachmentCount := 0
	for _, part := range Flatten(msg.Payload) {
		mimeType := strings.ToLower(part.MIMEType)
		switch {
		case mimeType == "text/plain" && part.HasBodyData():
			if content.Body != "" {
				continue
			}
			decoded, err := provider.DecodeBody(part.Body.Data)
			if err != nil {
				log.Printf("Failed to decode text part of message %s: %v", msg.ID, err)
				continue
			}
			content.Body = string(decoded)

		case mimeType == "text/html" && part.HasBodyData():
			if content.HTMLBody != "" {
				continue
			}
			decoded, err := provider.DecodeBody(part.Body.Data)
			if err != nil {
				log.Printf("Failed to decode html part of message %s: %v", msg.ID, err)
				continue
			}
			content.HTMLBody = string(decoded)

		case part.Body != nil && (part.Body.AttachmentID != "" || part.Body.Data != ""):
			attachmentCount++
			att := AttachmentPart{
				Filename:     resolveFilename(part, attachmentCount),
				ContentType:  part.MIMEType,
				AttachmentID: part.Body.AttachmentID,
				Size:         part.Body.Size,
			}
			if att.ContentType == "" {
				att.ContentType = "application/octet-stream"
			}
			if part.Body.AttachmentID == "" {
				decoded, err := provider.DecodeBody(part.Body.Data)
				if err != nil {
					log.Printf("Failed to decode inline attachment %q of message %s: %v", att.Filename, msg.ID, err)
					continue
				}
				att.Data = decoded
				att.Size = int64(len(decoded))
			}
			content.Attachments = append(content.Attachments, att)
		}
	}

	if content.Body == "" {
		content.Body = fallbackBody(msg.Payload)
	}
	return content
}

// fallbackBody is used when no text/plain leaf exists anywhere in the tree:
// the payload's own top-level body data, or a literal placeholder.
func fallbackBody(payload *provider.Part) string {
	if payload.HasBodyData() {
		if decoded, err := provider.DecodeBody(payload.Body.Data); err == nil {
			return string(decoded)
		}
	}
	return NoBodyPlaceholder
}

// resolveFilename picks the attachment's name from, in order: the part's
// explicit filename, the Content-Disposition filename parameter, the
// Content-Type name parameter, and finally a generated attachment_N name.
func resolveFilename(part *provider.Part, n int) string {
	if part.Filename != "" {
		return part.Filename
	}
	if cd := part.Header("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	if ct := part.Header("Content-Type"); ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			if name := params["name"]; name != "" {
				return name
			}
		}
	}
	return fmt.Sprintf("attachment_%d", n)
}
