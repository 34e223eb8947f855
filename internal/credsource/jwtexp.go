package credsource

import (
	"github.com/golang-jwt/jwt/v5"
)

// jwtExpiryMillis opportunistically decodes the exp claim from an access
// token shaped like a JWT. The token is parsed unverified — this engine is
// not a relying party, it only wants an expiry hint when the source didn't
// supply one. Any parse failure or missing claim returns ok=false and
// expires_at stays absent, per spec.
func jwtExpiryMillis(accessToken string) (millis int64, ok bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return 0, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}
	return exp.UnixMilli(), true
}
