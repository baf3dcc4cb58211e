package provider

import (
	"fmt"
)

// AuthError means the mailbox credential could not be exchanged for an access
// token (revoked, expired, or no OAuth client configured for the tenant).
// It aborts the affected account's sync only.
type AuthError struct {
	TenantID string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider auth failed for tenant %s: %v", e.TenantID, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError means a list/get/attachment call returned a non-2xx status.
// The affected message or attachment is skipped; the loop continues.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SendError means an outbound send was rejected. It is logged and swallowed
// by callers; failing to acknowledge must not block ticket creation.
type SendError struct {
	StatusCode int
	Err        error
}

func (e *SendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider send failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider send failed: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
