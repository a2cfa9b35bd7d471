package jwt

import (
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies access tokens issued by the identity provider. This
// backend never issues tokens itself.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	ValidateToken(tokenString string) (jwt.Token, error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// ValidateToken parses and verifies a raw token string, for callers outside
// the chi middleware chain (cron-triggered admin tools, tests).
func (j *JWTService) ValidateToken(tokenString string) (jwt.Token, error) {
	return jwtauth.VerifyToken(j.tokenAuth, tokenString)
}
