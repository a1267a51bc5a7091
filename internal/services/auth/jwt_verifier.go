package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/demonshower/BFTBrain/internal/domain"
)

// Claims are the registered claims carried by a replica token. The subject
// is the replica node id.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 replica tokens.
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// VerifierOption customizes a JWTVerifier.
type VerifierOption func(*JWTVerifier)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) VerifierOption {
	return func(v *JWTVerifier) { v.issuer = issuer }
}

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) VerifierOption {
	return func(v *JWTVerifier) { v.audience = audience }
}

// WithLeeway tolerates clock skew on exp and nbf.
func WithLeeway(leeway time.Duration) VerifierOption {
	return func(v *JWTVerifier) { v.leeway = leeway }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *JWTVerifier) { v.now = now }
}

// NewJWTVerifier creates a verifier for tokens signed with secret.
func NewJWTVerifier(secret []byte, opts ...VerifierOption) *JWTVerifier {
	v := &JWTVerifier{
		secret: secret,
		now:    time.Now,
		// Time claims are checked below so that leeway and the clock apply.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyToken verifies signature and claims and returns the claims.
func (v *JWTVerifier) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: token has no expiry", domain.ErrInvalidToken)
	}
	now := v.now()
	if !claims.VerifyExpiresAt(now.Add(-v.leeway), true) {
		return nil, domain.ErrTokenExpired
	}
	if !claims.VerifyNotBefore(now.Add(v.leeway), false) {
		return nil, fmt.Errorf("%w: token not valid yet", domain.ErrInvalidToken)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", domain.ErrInvalidToken, claims.Issuer)
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: audience %q not accepted", domain.ErrInvalidToken, v.audience)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, domain.ErrMissingSubject)
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, domain.ErrTokenExpired)
}
