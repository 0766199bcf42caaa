package permission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
)

var (
	// ErrEmptySecret is returned when a JWT authority is built without a key
	ErrEmptySecret = errors.New("grant secret cannot be empty")
	// ErrEmptyPackage is returned when a grant is issued without a package
	ErrEmptyPackage = errors.New("package cannot be empty")
)

// DefaultGrantTTL is how long issued grant tokens stay valid.
const DefaultGrantTTL = 24 * time.Hour

// GrantClaims are the claims of a permission grant token.
// The registered subject carries the package the grant was issued to.
type GrantClaims struct {
	Tiers []string `json:"tiers"`
	jwt.RegisteredClaims
}

// JWTAuthority decides grants from HMAC-signed tokens presented in
// Caller.Credential. Every check re-validates the token, so expiry takes
// effect without any revocation step.
type JWTAuthority struct {
	secretKey []byte
	now       func() time.Time
}

// NewJWTAuthority creates an authority that verifies tokens signed with secretKey.
func NewJWTAuthority(secretKey string) (*JWTAuthority, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}
	return &JWTAuthority{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}, nil
}

// IssueGrant creates a token granting tiers to pkg for ttl (DefaultGrantTTL when zero).
func (a *JWTAuthority) IssueGrant(pkg string, tiers []permission.Tier, ttl time.Duration) (string, time.Time, error) {
	if pkg == "" {
		return "", time.Time{}, ErrEmptyPackage
	}
	if ttl <= 0 {
		ttl = DefaultGrantTTL
	}

	now := a.now()
	expiresAt := now.Add(ttl)

	names := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		names = append(names, tier.String())
	}

	claims := GrantClaims{
		Tiers: names,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   pkg,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign grant: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateGrant parses and verifies a grant token.
func (a *JWTAuthority) ValidateGrant(tokenString string) (*GrantClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token cannot be empty")
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &GrantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("invalid grant: %w", err)
	}

	claims, ok := token.Claims.(*GrantClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid grant claims")
	}

	return claims, nil
}

// IsAllowed reports whether caller presents a valid grant, issued to its
// package, that lists tier.
func (a *JWTAuthority) IsAllowed(caller permission.Caller, tier permission.Tier) bool {
	if tier == permission.TierNone {
		return true
	}

	claims, err := a.ValidateGrant(caller.Credential)
	if err != nil || claims.Subject != caller.Package {
		return false
	}

	for _, name := range claims.Tiers {
		if granted, err := permission.ParseTier(name); err == nil && granted == tier {
			return true
		}
	}
	return false
}

// Verify that JWTAuthority implements the Authority interface at compile time
var _ permission.Authority = (*JWTAuthority)(nil)
