package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrMissingClaim = errors.New("token is missing a required claim")

// Claims is the identity carried by an access token.
type Claims struct {
	UserID     string
	CompanyID  string
	EmployeeID *string
	IsAdmin    bool
}

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration, skew time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(skew)),
	}
}

func (j *JWTService) GenerateAccessToken(c Claims) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	claims := map[string]interface{}{
		"user_id":    c.UserID,
		"company_id": c.CompanyID,
		"is_admin":   c.IsAdmin,
		"type":       "access",
		"exp":        expiresAt,
	}
	if c.EmployeeID != nil {
		claims["employee_id"] = *c.EmployeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ClaimsFromContext reads the verified token claims placed in ctx by
// jwtauth.Verifier.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, raw, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, err
	}

	var c Claims
	userID, ok := raw["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, ErrMissingClaim
	}
	companyID, ok := raw["company_id"].(string)
	if !ok || companyID == "" {
		return Claims{}, ErrMissingClaim
	}
	c.UserID = userID
	c.CompanyID = companyID

	if employeeID, ok := raw["employee_id"].(string); ok && employeeID != "" {
		c.EmployeeID = &employeeID
	}
	if admin, ok := raw["is_admin"].(bool); ok {
		c.IsAdmin = admin
	}
	return c, nil
}
