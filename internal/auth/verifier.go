// Package auth verifies the service tokens the Nexus gateway attaches to every
// call it forwards to this department.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated covers a missing, malformed, badly signed or expired token.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrForbidden means the token is valid but was issued for another department.
	ErrForbidden = errors.New("auth: token not issued for this department")
)

// ServiceClaims is the claim set carried by a gateway service token.
type ServiceClaims struct {
	Department string `json:"department"`
	Service    string `json:"service,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks service tokens against a shared secret and a fixed department.
type Verifier struct {
	secret     []byte
	department string
}

// NewVerifier creates a verifier bound to one department.
func NewVerifier(secret, department string) *Verifier {
	return &Verifier{
		secret:     []byte(secret),
		department: department,
	}
}

// Department returns the department identifier tokens must carry.
func (v *Verifier) Department() string {
	return v.department
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrUnauthenticated)
	}
	return token, nil
}

// Verify validates signature and expiry, then the department claim. A department
// claim that is missing or not a string is treated as another department.
func (v *Verifier) Verify(tokenString string) (*ServiceClaims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: verifier has no secret", ErrUnauthenticated)
	}

	mapClaims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, mapClaims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	department, ok := mapClaims["department"].(string)
	if !ok || department != v.department {
		return nil, fmt.Errorf("%w: got %v", ErrForbidden, mapClaims["department"])
	}
	return serviceClaims(mapClaims, department), nil
}

func serviceClaims(mc jwt.MapClaims, department string) *ServiceClaims {
	claims := &ServiceClaims{Department: department}
	claims.Service, _ = mc["service"].(string)
	claims.Issuer, _ = mc.GetIssuer()
	claims.Subject, _ = mc.GetSubject()
	claims.ExpiresAt, _ = mc.GetExpirationTime()
	claims.IssuedAt, _ = mc.GetIssuedAt()
	return claims
}

// Issuer mints service tokens. The gateway owns issuance in production; this is
// used by the admin CLI and by tests.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Issue signs an HS256 token for department valid for ttl. A non-positive ttl
// yields a token that is already expired.
func (i *Issuer) Issue(department string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := ServiceClaims{
		Department: department,
		Service:    "nexus-gateway",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "nexus",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

type contextKey string

const claimsContextKey contextKey = "urban.serviceAuth"

// WithClaims attaches verified claims to ctx.
func WithClaims(ctx context.Context, claims *ServiceClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the claims attached by WithClaims.
func ClaimsFromContext(ctx context.Context) (*ServiceClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*ServiceClaims)
	return claims, ok && claims != nil
}
