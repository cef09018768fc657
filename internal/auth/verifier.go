// Package auth turns a Cognito access token into the caller's identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agroproposals/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var ErrInvalidToken = errors.New("invalid access token")

// KeySetProvider is satisfied by *jwk.Cache.
type KeySetProvider interface {
	Lookup(ctx context.Context, u string) (jwk.Set, error)
}

var metadataClaims = []string{"name", "given_name", "family_name", "username"}

type Verifier struct {
	keys    KeySetProvider
	jwksURL string
	issuer  string
}

// NewVerifier checks tokens against the key set published at jwksURL. An
// empty issuer skips the iss check.
func NewVerifier(keys KeySetProvider, jwksURL, issuer string) *Verifier {
	return &Verifier{
		keys:    keys,
		jwksURL: jwksURL,
		issuer:  issuer,
	}
}

// JWKSURL is where Cognito publishes the signing keys of a user pool.
func JWKSURL(issuerURL string) string {
	return strings.TrimRight(issuerURL, "/") + "/.well-known/jwks.json"
}

func (v *Verifier) Verify(ctx context.Context, accessToken string) (*types.Identity, error) {
	set, err := v.keys.Lookup(ctx, v.jwksURL)
	if err != nil {
		return nil, &types.UpstreamError{Op: "fetch jwks", Err: err}
	}

	options := []jwt.ParseOption{
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse([]byte(accessToken), options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	identity := &types.Identity{
		ID:       userID,
		Metadata: map[string]string{},
	}

	// email is optional, cognito access tokens only carry it on some flows
	var email string
	if err := token.Get("email", &email); err == nil {
		identity.Email = email
	}

	for _, claim := range metadataClaims {
		var value string
		if err := token.Get(claim, &value); err == nil && value != "" {
			identity.Metadata[claim] = value
		}
	}

	return identity, nil
}
