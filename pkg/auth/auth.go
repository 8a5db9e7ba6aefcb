// Package auth verifies bearer tokens issued by the identity provider.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoVerifier = errors.New("no token verification configured")

// Identity is what a verified token says about the caller.
type Identity struct {
	UserID string
	Role   string
}

// Verifier accepts HS256 tokens signed with a shared secret and RS256 tokens
// whose keys are published at a JWKS URL. Either may be left unset.
type Verifier struct {
	secret []byte
	keys   *KeySet
}

func NewVerifier(secret, jwksURL string) *Verifier {
	v := &Verifier{}
	if secret != "" {
		v.secret = []byte(secret)
	}
	if jwksURL != "" {
		v.keys = NewKeySet(jwksURL)
	}
	return v
}

// Enabled reports whether any verification method is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && (v.secret != nil || v.keys != nil)
}

func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	if !v.Enabled() {
		return nil, ErrNoVerifier
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if v.secret == nil {
				return nil, fmt.Errorf("HS256 token received but JWT_SECRET is not configured")
			}
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			if v.keys == nil {
				return nil, fmt.Errorf("RS256 token received but JWKS_URL is not configured")
			}
			return v.keys.keyFunc(token)
		}
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	if exp, _ := claims.GetExpirationTime(); exp == nil {
		return nil, errors.New("token has no expiry")
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, errors.New("token has no subject")
	}
	role, _ := claims["role"].(string)
	return &Identity{UserID: sub, Role: role}, nil
}
