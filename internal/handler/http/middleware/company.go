package middleware

import (
	"context"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/user"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by AuthRequired.
func PrincipalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	return p, ok
}

// CompanyID returns the caller's company, or ErrCompanyIDRequired when the
// request was not authenticated.
func CompanyID(ctx context.Context) (string, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.CompanyID == "" {
		return "", user.ErrCompanyIDRequired
	}
	return p.CompanyID, nil
}
