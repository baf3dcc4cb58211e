package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// AccessToken exchanges a long-lived refresh credential for a bearer token
// using the tenant's OAuth client. A provider rejection (revoked or expired
// credential) surfaces as *AuthError so the caller aborts only that account.
func (c *Client) AccessToken(ctx context.Context, tenantID, clientID, clientSecret, refreshToken string) (string, error) {
	if clientID == "" || clientSecret == "" {
		return "", &AuthError{TenantID: tenantID, Err: fmt.Errorf("no OAuth client configured")}
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.tokenURL},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	tok, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", &AuthError{
				TenantID: tenantID,
				Err:      fmt.Errorf("provider rejected refresh token: %s", retrieveErr.ErrorCode),
			}
		}
		return "", &AuthError{TenantID: tenantID, Err: err}
	}
	return tok.AccessToken, nil
}
