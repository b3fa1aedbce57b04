package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JwtCustomClaims carries the verified purchaser identity. How the token was
// issued (social login, password) is the identity provider's business; this
// service only trusts the email claim.
type JwtCustomClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// MiddlewareConfig returns the echo-jwt config validating bearer tokens
// against the shared secret.
func MiddlewareConfig(secret string) echojwt.Config {
	return echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JwtCustomClaims)
		},
	}
}

// OptionalMiddlewareConfig validates a bearer token when one is present but
// lets anonymous requests through. Used on checkout, where the purchaser may
// not have signed in yet.
func OptionalMiddlewareConfig(secret string) echojwt.Config {
	cfg := MiddlewareConfig(secret)
	cfg.ContinueOnIgnoredError = true
	cfg.ErrorHandler = func(c echo.Context, err error) error {
		return nil
	}
	return cfg
}

// TokenEmail returns the verified email claim on the request, or empty when
// the request carries no validated token.
func TokenEmail(c echo.Context) string {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return ""
	}
	return claims.Email
}

// SignToken issues a token for the given identity. Used by tooling and tests;
// production tokens come from the identity provider.
func SignToken(secret, name, email string, ttl time.Duration) (string, error) {
	claims := &JwtCustomClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
