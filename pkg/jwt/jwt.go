package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config configures access token verification.
// Tokens are issued by the external auth provider and signed with HS256.
type Config struct {
	Secret   string        `env:"JWT_SECRET,required"`
	Issuer   string        `env:"JWT_ISSUER"`
	Audience string        `env:"JWT_AUDIENCE"`
	Leeway   time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
}

// Claims are the access token claims. Subject holds the user ID.
type Claims struct {
	gojwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UserID parses the subject as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	if c == nil || c.Subject == "" {
		return uuid.Nil, ErrMissingClaims
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidClaims)
	}
	return id, nil
}

// Service verifies and issues HS256 access tokens.
type Service struct {
	key    []byte
	cfg    Config
	parser *gojwt.Parser
}

// New creates a Service from cfg.
func New(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSigningKey
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(cfg.Audience))
	}

	return &Service{
		key:    []byte(cfg.Secret),
		cfg:    cfg,
		parser: gojwt.NewParser(opts...),
	}, nil
}

// Parse verifies token and returns its claims.
func (s *Service) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, gojwt.ErrTokenExpired):
		return nil, errors.Join(ErrExpiredToken, err)
	case errors.Is(err, gojwt.ErrTokenInvalidClaims),
		errors.Is(err, gojwt.ErrTokenInvalidIssuer),
		errors.Is(err, gojwt.ErrTokenInvalidAudience),
		errors.Is(err, gojwt.ErrTokenRequiredClaimMissing):
		return nil, errors.Join(ErrInvalidClaims, err)
	default:
		return nil, errors.Join(ErrInvalidToken, err)
	}
}

// Issue signs a token for userID valid for ttl.
// Used by tooling and tests; production tokens come from the auth provider.
func (s *Service) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if s.cfg.Audience != "" {
		claims.Audience = gojwt.ClaimStrings{s.cfg.Audience}
	}
	return s.Sign(claims)
}

// Sign signs arbitrary claims with the service key.
func (s *Service) Sign(claims Claims) (string, error) {
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
