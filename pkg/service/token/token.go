package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks
var ErrInvalidToken = errors.New("invalid token")

const issuer = "pmotracker"

// Claims is the payload of an access token
type Claims struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 access tokens
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Service)

// WithTTL sets the lifetime of issued tokens
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithNow replaces the clock used for issuing and verifying
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, goerr.New("token secret is required")
	}

	s := &Service{
		secret: []byte(secret),
		ttl:    24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for the principal. Capabilities are written as
// explicit permissions so that grants beyond the role survive a round trip.
func (s *Service) Issue(p *auth.Principal) (string, time.Time, error) {
	now := s.now()
	expireAt := now.Add(s.ttl)

	perms := make([]string, 0)
	for _, c := range p.Capabilities() {
		perms = append(perms, c.String())
	}

	claims := &Claims{
		ID:          string(p.UserID),
		Email:       p.Email,
		Name:        p.Name,
		Role:        p.Role.String(),
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(p.UserID),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expireAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, goerr.Wrap(err, "failed to sign token", goerr.V("user_id", p.UserID))
	}
	return signed, expireAt, nil
}

// Verify parses a token and returns the principal it carries
func (s *Service) Verify(tokenStr string) (*auth.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, goerr.New("unexpected signing method", goerr.V("alg", t.Header["alg"]))
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, err.Error())
	}
	if !parsed.Valid {
		return nil, goerr.Wrap(ErrInvalidToken, "token is not valid")
	}

	if claims.ID == "" {
		return nil, goerr.Wrap(ErrInvalidToken, "token has no user id")
	}
	role, err := types.ParseRole(claims.Role)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, "token has an unknown role", goerr.V("role", claims.Role))
	}

	extra := make([]types.Capability, 0, len(claims.Permissions))
	for _, perm := range claims.Permissions {
		extra = append(extra, types.Capability(perm))
	}

	return auth.NewPrincipal(types.UserID(claims.ID), claims.Email, claims.Name, role, extra...), nil
}
