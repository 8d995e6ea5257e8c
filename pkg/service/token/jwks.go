package token

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// Verifier resolves a bearer token into a principal
type Verifier interface {
	Verify(token string) (*auth.Principal, error)
}

const (
	jwksRefreshInterval = 15 * time.Minute
	jwksAcceptableSkew  = 10 * time.Second
)

// JWKSVerifier verifies ID tokens signed by an external identity provider.
// The subject becomes the user ID. A missing role claim maps to Team_Member.
type JWKSVerifier struct {
	keySet   jwk.Set
	audience string
}

// NewJWKSVerifier fetches the key set at jwksURL and keeps it refreshed in
// the background until ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL, audience string) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, goerr.New("jwks URL is required")
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(jwksRefreshInterval)); err != nil {
		return nil, goerr.Wrap(err, "failed to register jwks", goerr.V("jwks_url", jwksURL))
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch jwks", goerr.V("jwks_url", jwksURL))
	}

	return &JWKSVerifier{
		keySet:   jwk.NewCachedSet(cache, jwksURL),
		audience: audience,
	}, nil
}

func (v *JWKSVerifier) Verify(tokenStr string) (*auth.Principal, error) {
	opts := []jwt.ParseOption{
		jwt.WithKeySet(v.keySet),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(jwksAcceptableSkew),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	tok, err := jwt.Parse([]byte(tokenStr), opts...)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, err.Error())
	}

	if tok.Subject() == "" {
		return nil, goerr.Wrap(ErrInvalidToken, "token has no subject")
	}

	role := types.RoleTeamMember
	if s := stringClaim(tok, "role"); s != "" {
		parsed, err := types.ParseRole(s)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidToken, "token has an unknown role", goerr.V("role", s))
		}
		role = parsed
	}

	var extra []types.Capability
	if raw, ok := tok.Get("permissions"); ok {
		if list, ok := raw.([]any); ok {
			for _, item := range list {
				if s, ok := item.(string); ok {
					extra = append(extra, types.Capability(s))
				}
			}
		}
	}

	return auth.NewPrincipal(types.UserID(tok.Subject()), stringClaim(tok, "email"), stringClaim(tok, "name"), role, extra...), nil
}

func stringClaim(tok jwt.Token, name string) string {
	raw, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := raw.(string)
	return s
}

// Chain tries each verifier in order and accepts the first success
type Chain []Verifier

func (c Chain) Verify(tokenStr string) (*auth.Principal, error) {
	if len(c) == 0 {
		return nil, goerr.Wrap(ErrInvalidToken, "no token verifier configured")
	}

	var lastErr error
	for _, v := range c {
		p, err := v.Verify(tokenStr)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
