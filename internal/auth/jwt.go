package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "roverlink"

type Permission string

const (
	// PermViewer may watch frames and status.
	PermViewer Permission = "viewer"
	// PermOperator may also drive the platform.
	PermOperator Permission = "operator"
)

// ParsePermission accepts a role name from a token or the CLI.
func ParsePermission(s string) (Permission, error) {
	switch Permission(s) {
	case PermViewer, PermOperator:
		return Permission(s), nil
	default:
		return "", fmt.Errorf("unknown role %q (want viewer or operator)", s)
	}
}

type JWTClaims struct {
	Name string     `json:"name"`
	Role Permission `json:"role"`
	jwt.RegisteredClaims
}

// Permissions expands the role: operators can also view.
func (c *JWTClaims) Permissions() []Permission {
	if c.Role == PermOperator {
		return []Permission{PermViewer, PermOperator}
	}
	return []Permission{PermViewer}
}

type JWTHandler struct {
	secretKey      []byte
	accessTokenTTL time.Duration
}

func NewJWTHandler(secretKey string, accessTTL time.Duration) (*JWTHandler, error) {
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	return &JWTHandler{
		secretKey:      []byte(secretKey),
		accessTokenTTL: accessTTL,
	}, nil
}

// GenerateAccessToken creates a new JWT access token
func (j *JWTHandler) GenerateAccessToken(name string, role Permission) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateAccessToken validates and parses a JWT access token
func (j *JWTHandler) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if _, err := ParsePermission(string(claims.Role)); err != nil {
			return nil, err
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
