package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

var nowFunc = time.Now // mockable

// TokenExpired reports whether token is a JWT whose `exp` claim lies in the past.
// The signature is not checked. Opaque tokens are never reported expired.
func TokenExpired(token string) bool {
	claims := new(jwt.StandardClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == 0 {
		return false
	}
	return !claims.VerifyExpiresAt(nowFunc().Unix(), true)
}
