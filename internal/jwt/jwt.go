// Package jwt issues and verifies the HS256 tokens used for sessions.
//
// Access tokens carry {id, role} and refresh tokens carry {id}. Each kind is
// signed with its own secret and tagged with a typ claim that verification
// checks, so one is rejected where the other is expected.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every verification failure.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired wraps ErrInvalidToken.
	ErrTokenExpired = fmt.Errorf("%w: token has expired", ErrInvalidToken)
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the payload of both token kinds. Role is empty on refresh tokens.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"typ"`
	gojwt.RegisteredClaims
}

type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWTService creates a token service. The default lifetimes are
// deliberately 7 days for access and 15 minutes for refresh.
func NewJWTService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTService {
	return &JWTService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccessToken signs {id, role} with the access secret.
func (s *JWTService) IssueAccessToken(userID, role string) (string, error) {
	return sign(Claims{UserID: userID, Role: role, Type: TypeAccess}, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs {id} with the refresh secret.
func (s *JWTService) IssueRefreshToken(userID string) (string, error) {
	return sign(Claims{UserID: userID, Type: TypeRefresh}, s.refreshSecret, s.refreshTTL)
}

func (s *JWTService) VerifyAccessToken(token string) (*Claims, error) {
	return verifyType(token, s.accessSecret, TypeAccess)
}

func (s *JWTService) VerifyRefreshToken(token string) (*Claims, error) {
	return verifyType(token, s.refreshSecret, TypeRefresh)
}

func verifyType(token string, secret []byte, typ string) (*Claims, error) {
	claims, err := Verify(token, secret)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, typ, claims.Type)
	}
	return claims, nil
}

// AccessTTL is used by the HTTP layer to size cookies.
func (s *JWTService) AccessTTL() time.Duration { return s.accessTTL }

func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

func sign(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = gojwt.RegisteredClaims{
		Subject:   claims.UserID,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token against secret.
func Verify(token string, secret []byte) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (any, error) {
		return secret, nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
