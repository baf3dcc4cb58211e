package mimeutil

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outbound describes one message to compile into RFC822 form. TextBody is
// required; a non-empty HTMLBody produces a multipart/alternative body, and a
// non-nil Attachment wraps everything in multipart/mixed.
type Outbound struct {
	FromAddress string
	FromName    string
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachment  *OutboundAttachment
}

// OutboundAttachment is a single file carried on an outbound message.
type OutboundAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BuildRaw compiles the message and encodes it the way the provider's send
// API expects: base64url without padding.
func BuildRaw(msg Outbound) string {
	return base64.RawURLEncoding.EncodeToString([]byte(Build(msg)))
}

// Build compiles an RFC822 message with CRLF line endings throughout.
func Build(msg Outbound) string {
	var b strings.Builder

	writeHeader(&b, "From", formatAddress(msg.FromName, msg.FromAddress))
	writeHeader(&b, "To", msg.To)
	writeHeader(&b, "Subject", msg.Subject)
	writeHeader(&b, "Date", time.Now().Format(time.RFC1123Z))
	writeHeader(&b, "MIME-Version", "1.0")

	switch {
	case msg.Attachment != nil:
		buildMixed(&b, msg)
	case msg.HTMLBody != "":
		buildAlternative(&b, msg.TextBody, msg.HTMLBody, newBoundary())
	default:
		writeHeader(&b, "Content-Type", `text/plain; charset="UTF-8"`)
		b.WriteString("\r\n")
		b.WriteString(toCRLF(msg.TextBody))
	}
	return b.String()
}

// buildMixed writes a multipart/mixed message: the body (alternative or
// plain) followed by one base64-encoded attachment part.
func buildMixed(b *strings.Builder, msg Outbound) {
	mixedBoundary := newBoundary()
	writeHeader(b, "Content-Type", fmt.Sprintf(`multipart/mixed; boundary="%s"`, mixedBoundary))
	b.WriteString("\r\n")

	b.WriteString("--" + mixedBoundary + "\r\n")
	if msg.HTMLBody != "" {
		buildAlternative(b, msg.TextBody, msg.HTMLBody, newBoundary())
	} else {
		writeHeader(b, "Content-Type", `text/plain; charset="UTF-8"`)
		b.WriteString("\r\n")
		b.WriteString(toCRLF(msg.TextBody))
	}
	b.WriteString("\r\n--" + mixedBoundary + "\r\n")

	att := msg.Attachment
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	writeHeader(b, "Content-Type", fmt.Sprintf(`%s; name="%s"`, contentType, att.Filename))
	writeHeader(b, "Content-Transfer-Encoding", "base64")
	writeHeader(b, "Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, att.Filename))
	b.WriteString("\r\n")
	b.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(att.Data)))
	b.WriteString("\r\n--" + mixedBoundary + "--\r\n")
}

// buildAlternative writes a multipart/alternative body: plain text first so
// clients preferring it pick it up, then the HTML variant.
func buildAlternative(b *strings.Builder, textBody, htmlBody, boundary string) {
	writeHeader(b, "Content-Type", fmt.Sprintf(`multipart/alternative; boundary="%s"`, boundary))
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	writeHeader(b, "Content-Type", `text/plain; charset="UTF-8"`)
	b.WriteString("\r\n")
	b.WriteString(toCRLF(textBody))

	b.WriteString("\r\n--" + boundary + "\r\n")
	writeHeader(b, "Content-Type", `text/html; charset="UTF-8"`)
	b.WriteString("\r\n")
	b.WriteString(toCRLF(htmlBody))

	b.WriteString("\r\n--" + boundary + "--\r\n")
}

func writeHeader(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

func formatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%q <%s>", name, address)
}

// newBoundary generates a boundary that cannot collide with body content or
// with another message built in the same millisecond: random token plus a
// nanosecond timestamp.
func newBoundary() string {
	return fmt.Sprintf("=_%s.%d", strings.ReplaceAll(uuid.NewString(), "-", ""), time.Now().UnixNano())
}

// toCRLF normalizes all line endings to CRLF.
func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// wrapBase64 folds base64 output at the RFC-mandated 76 character limit.
func wrapBase64(s string) string {
	const lineLen = 76
	var b strings.Builder
	for len(s) > lineLen {
		b.WriteString(s[:lineLen])
		b.WriteString("\r\n")
		s = s[lineLen:]
	}
	b.WriteString(s)
	return b.String()
}
