package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// tokenClaims extracts the subject, email and expiry from an access token
// without verifying the signature. The provider is the verifier of record;
// the client only needs the claims for identity and expiry scheduling.
func tokenClaims(accessToken string) (subject, email string, expiresAt time.Time, err error) {
	parser := jwt.NewParser()

	var claims accessClaims
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return "", "", time.Time{}, err
	}

	if claims.Subject == "" {
		return "", "", time.Time{}, errors.New("access token has no subject")
	}

	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return claims.Subject, claims.Email, expiresAt, nil
}
