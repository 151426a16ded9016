// Package auth reads the identity carried by a backend-issued bearer token.
//
// Tokens are decoded without verifying their signature: the storefront never
// holds the signing secret and every call it makes with the token is checked
// by the backend, which answers 401 for anything it does not accept.
package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// Claims are the JWT claims of a backend access token.
type Claims struct {
	UserID userID `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// userID accepts both numeric and string ids.
type userID string

func (u *userID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*u = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = userID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	*u = userID(n.String())
	return nil
}

// Credential is a signed-in user's token and the identity it names.
type Credential struct {
	Token     string
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the credential's expiry has passed at now. A
// credential without an expiry never expires.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// NumericUserID returns the user id as an integer, when it is one.
func (c Credential) NumericUserID() (int64, bool) {
	n, err := strconv.ParseInt(c.UserID, 10, 64)
	return n, err == nil
}

var parser = jwt.NewParser()

// ParseCredential decodes token and rejects it when it is malformed, names
// no user or has already expired at now.
func ParseCredential(token string, now time.Time) (Credential, error) {
	if token == "" {
		return Credential{}, apperrors.Unauthorized("missing token")
	}

	var claims Claims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Credential{}, &apperrors.AppError{
			Code:    "UNAUTHORIZED",
			Message: "malformed token",
			Status:  http.StatusUnauthorized,
			Err:     fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err),
		}
	}

	cred := Credential{
		Token:  token,
		UserID: string(claims.UserID),
		Email:  claims.Email,
		Role:   claims.Role,
	}
	if cred.UserID == "" {
		cred.UserID = claims.Subject
	}
	if cred.UserID == "" {
		return Credential{}, apperrors.Unauthorized("token names no user")
	}
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
	}
	if cred.Expired(now) {
		return Credential{}, apperrors.Unauthorized("session expired")
	}
	return cred, nil
}
