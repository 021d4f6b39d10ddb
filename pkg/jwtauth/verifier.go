package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the flat claim mapping of a verified token. Numbers are
// json.Number, so integer claims such as company_id keep their exact value.
type Claims map[string]any

// Subject returns the sub claim.
func (c Claims) Subject() string {
	s, _ := c["sub"].(string)
	return s
}

// Verifier signs and verifies HS256 tokens.
type Verifier struct {
	key      []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithIssuer requires the iss claim to match.
func WithIssuer(iss string) Option {
	return func(v *Verifier) {
		v.issuer = iss
	}
}

// WithAudience requires the aud claim to contain aud.
func WithAudience(aud string) Option {
	return func(v *Verifier) {
		v.audience = aud
	}
}

// WithLeeway tolerates clock skew on exp, nbf and iat.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.leeway = d
		}
	}
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret []byte, opts ...Option) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSigningKey
	}
	v := &Verifier{key: secret}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Sign issues a token with claims, filling iss when the verifier has one.
func (v *Verifier) Sign(claims Claims) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}
	mc := jwt.MapClaims{}
	for k, val := range claims {
		mc[k] = val
	}
	if _, ok := mc["iss"]; !ok && v.issuer != "" {
		mc["iss"] = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(v.key)
}

// Verify checks the signature, algorithm and registered claims of token and
// returns its claims.
func (v *Verifier) Verify(token string) (Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, v.parserOptions()...)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMissingClaims
	}
	return Claims(mc), nil
}

func (v *Verifier) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithJSONNumber(),
		jwt.WithIssuedAt(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.leeway))
	}
	return opts
}
