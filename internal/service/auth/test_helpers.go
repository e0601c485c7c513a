package auth

import "time"

// NewTestJWTService builds a JWT service with a fixed signing key and an
// injectable clock. Tests use it to mint and validate tokens at controlled
// times without waiting for real expiry.
func NewTestJWTService(secret string, tokenLifetime time.Duration, timeFunc func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:           []byte(secret),
		tokenLifetime:        tokenLifetime,
		refreshTokenLifetime: 24 * time.Hour,
		timeFunc:             timeFunc,
	}
}
