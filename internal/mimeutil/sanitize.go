package mimeutil

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// maxStemLength bounds the sanitized stem so storage paths stay well under
// common key-length limits.
const maxStemLength = 200

// SanitizeFilename reduces an attachment filename to storage-safe characters.
// The extension is sanitized separately from the stem so it survives stem
// truncation; a name that strips to nothing becomes "attachment".
func SanitizeFilename(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	stem = unsafeFilenameChars.ReplaceAllString(stem, "")
	ext = unsafeFilenameChars.ReplaceAllString(ext, "")

	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}
	if stem == "" {
		stem = "attachment"
	}
	return stem + ext
}
