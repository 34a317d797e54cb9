package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

const (
	tokenIssuer   = "molo"
	tokenAudience = "molo-api"
	tokenSubject  = "owner"
)

// Claims represents the JWT claims issued to the diary owner.
type Claims struct {
	jwt.RegisteredClaims
	Authenticated bool `json:"authenticated"`
}

// NewClaims returns owner claims issued at now.
func NewClaims(now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tokenIssuer,
			Subject:  tokenSubject,
			Audience: jwt.ClaimStrings{tokenAudience},
			IssuedAt: jwt.NewNumericDate(now),
		},
		Authenticated: true,
	}
}

// SignToken signs claims with HS256, setting the expiry to IssuedAt plus ttl.
func SignToken(claims Claims, secret string, ttl time.Duration) (string, error) {
	issued := time.Now()
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	} else {
		claims.IssuedAt = jwt.NewNumericDate(issued)
	}
	claims.ExpiresAt = jwt.NewNumericDate(issued.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken parses and validates a JWT token string, returning the claims if valid.
func VerifyToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Authenticated {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// DecodeToken returns the claims without checking the signature or expiry.
// It must never be used to authorize a request.
func DecodeToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
