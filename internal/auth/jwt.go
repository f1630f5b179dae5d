package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

// Config selects how bearer tokens are verified. At least one of JWKSURL and
// HMACSecret must be set.
type Config struct {
	Issuer     string
	Audience   string
	JWKSURL    string
	HMACSecret string
}

// Identity is the verified caller
type Identity struct {
	Subject  string
	Email    string
	Username string
}

// Claims covers the registered claims plus what a hosted user pool adds.
// Access tokens carry the app client in client_id instead of aud.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"cognito:username,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
}

type Verifier struct {
	cfg    Config
	parser *jwt.Parser
	jwks   *jwksCache
	secret []byte
}

func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.JWKSURL == "" && cfg.HMACSecret == "" {
		return nil, errors.New("auth: a JWKS URL or an HMAC secret is required")
	}

	var methods []string
	v := &Verifier{cfg: cfg}
	if cfg.JWKSURL != "" {
		v.jwks = newJWKSCache(cfg.JWKSURL)
		methods = append(methods, "RS256")
	}
	if cfg.HMACSecret != "" {
		v.secret = []byte(cfg.HMACSecret)
		methods = append(methods, "HS256")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// Verify checks the signature, expiry, issuer and audience of token
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthorized)
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			return v.secret, nil
		case *jwt.SigningMethodRSA:
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			return v.jwks.getKey(ctx, kid)
		}
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if v.cfg.Audience != "" && !audienceMatches(claims, v.cfg.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrUnauthorized)
	}

	return &Identity{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

func audienceMatches(c *Claims, want string) bool {
	for _, aud := range c.Audience {
		if aud == want {
			return true
		}
	}
	return c.ClientID == want
}
