package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	employeeID := "emp-1"

	token, expiresAt, err := svc.GenerateAccessToken(user.Principal{
		UserID: "user-1", CompanyID: "company-1", EmployeeID: &employeeID, Role: user.RoleManager,
	})
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)

	p, err := PrincipalFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "company-1", p.CompanyID)
	assert.Equal(t, user.RoleManager, p.Role)
	require.NotNil(t, p.EmployeeID)
	assert.Equal(t, "emp-1", *p.EmployeeID)
}

func TestGenerateAccessToken_RejectsUnknownRole(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	_, _, err := svc.GenerateAccessToken(user.Principal{UserID: "u", CompanyID: "c", Role: "pending"})
	assert.Error(t, err)
}

func TestPrincipalFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]interface{}
		wantErr error
	}{
		{"refresh token", map[string]interface{}{"type": "refresh", "user_id": "u", "company_id": "c", "role": "owner"}, user.ErrInvalidToken},
		{"missing user", map[string]interface{}{"type": "access", "company_id": "c", "role": "owner"}, user.ErrInvalidToken},
		{"missing company", map[string]interface{}{"type": "access", "user_id": "u", "company_id": nil, "role": "owner"}, user.ErrCompanyIDRequired},
		{"unknown role", map[string]interface{}{"type": "access", "user_id": "u", "company_id": "c", "role": "pending"}, user.ErrInsufficientPermissions},
		{"ok", map[string]interface{}{"type": "access", "user_id": "u", "company_id": "c", "role": "owner"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PrincipalFromClaims(tt.claims)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.IsOwner())
			assert.Nil(t, p.EmployeeID)
		})
	}
}
