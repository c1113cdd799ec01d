package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims is the JWT claims structure issued by the auth collaborator.
// Only the fields this service reads are declared; everything else in the
// token is ignored.
type AuthClaims struct {
	jwt.RegisteredClaims        // standard claims (sub, iss, aud, exp, iat, ...)
	Email                string `json:"email"`
	Role                 string `json:"role"` // "authenticated" or "anon"
	DisplayName          string `json:"display_name,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AuthClaims) GetUserID() string {
	return c.Subject
}
