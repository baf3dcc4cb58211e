package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// URLSigner issues and verifies HMAC-signed retrieval URLs. The signature
// covers the object path and the expiry timestamp.
type URLSigner struct {
	publicBase string
	key        []byte
}

// NewURLSigner creates a signer rooted at the given public base URL.
func NewURLSigner(publicBase string, key []byte) *URLSigner {
	return &URLSigner{publicBase: publicBase, key: key}
}

// Sign returns a retrieval URL valid until now+ttl.
func (s *URLSigner) Sign(path string, ttl time.Duration) string {
	expires := time.Now().Add(ttl).Unix()
	sig := s.signature(path, expires)
	return fmt.Sprintf("%s/%s?expires=%d&sig=%s", s.publicBase, escapePath(path), expires, sig)
}

// Verify checks the signature and expiry for a path.
func (s *URLSigner) Verify(path string, expires int64, sig string) bool {
	if time.Now().Unix() > expires {
		return false
	}
	expected := s.signature(path, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *URLSigner) signature(path string, expires int64) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(path))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}
