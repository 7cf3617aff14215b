package jwt

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies the HS256 access tokens issued by the identity service.
// GenerateAccessToken mints compatible tokens for operators and tests.
type Service interface {
	GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration) Service {
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error) {
	if !principal.Role.IsValid() {
		return "", 0, fmt.Errorf("invalid role %q", principal.Role)
	}
	expiresAt = time.Now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id":     principal.UserID,
		"employee_id": returnValueOrNil(principal.EmployeeID),
		"company_id":  principal.CompanyID,
		"role":        string(principal.Role),
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// PrincipalFromClaims reads the caller identity out of verified claims.
func PrincipalFromClaims(claims map[string]interface{}) (user.Principal, error) {
	var p user.Principal

	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return p, user.ErrInvalidToken
	}

	p.UserID, _ = claims["user_id"].(string)
	if p.UserID == "" {
		return p, user.ErrInvalidToken
	}

	p.CompanyID, _ = claims["company_id"].(string)
	if p.CompanyID == "" {
		return p, user.ErrCompanyIDRequired
	}

	role, _ := claims["role"].(string)
	p.Role = user.Role(role)
	if !p.Role.IsValid() {
		return p, user.ErrInsufficientPermissions
	}

	if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
		p.EmployeeID = &employeeID
	}

	return p, nil
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
