package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the access/refresh token pair the client authenticates with.
// At most one valid credential is live at a time; login, refresh and logout
// are the only operations that replace or destroy it.
type Credential struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether cred must be refreshed before use. When no
// explicit expiry is recorded, the exp claim is decoded from the access
// token; a token whose expiry cannot be determined is treated as expired.
func Expired(cred Credential, now time.Time) bool {
	exp := cred.ExpiresAt
	if exp.IsZero() {
		var ok bool
		exp, ok = claimExpiry(cred.AccessToken)
		if !ok {
			return true
		}
	}
	return !now.Before(exp)
}

// HasKnownExpiry reports whether the credential's expiry can be determined
// locally, either from the recorded ExpiresAt or from a decodable exp
// claim. Opaque tokens have no known expiry; for those only the server can
// decide validity.
func HasKnownExpiry(cred Credential) bool {
	if !cred.ExpiresAt.IsZero() {
		return true
	}
	_, ok := claimExpiry(cred.AccessToken)
	return ok
}

// claimExpiry extracts the exp claim from a signed token without verifying
// the signature. The client is not the audience of the signature; it only
// needs the expiry to know when to refresh.
func claimExpiry(accessToken string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
