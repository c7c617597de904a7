package auth

import (
	"time"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the caller's identity as the
// external directory reported it: user name and group memberships.
type Claims struct {
	jwt.RegisteredClaims
	UserName string   `json:"user_name"`
	Groups   []string `json:"groups"`
}

// GenerateToken signs an HS256 token for the given principal.
func GenerateToken(p *Principal, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserName: p.Name,
		Groups:   p.Groups,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// PrincipalFromToken parses and verifies a token and returns the principal
// it asserts.
func PrincipalFromToken(tokenString string, secretKey []byte) (*Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, common.Forbiddenf("invalid token")
	}

	return &Principal{Name: claims.UserName, Groups: claims.Groups}, nil
}
