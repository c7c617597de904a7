// Package auth resolves the calling principal and its group memberships.
// The directory core consumes only the UserContext capability; tokens are the
// transport-level detail that produces one.
package auth

import "context"

// UserContext is the identity capability the directory layer checks ownership
// against. Group membership is evaluated per call, never cached.
type UserContext interface {
	UserName() string
	IsInGroup(group string) bool
}

// Principal is a resolved caller: a user name and the directory groups it
// belongs to.
type Principal struct {
	Name   string
	Groups []string
}

func (p *Principal) UserName() string {
	return p.Name
}

func (p *Principal) IsInGroup(group string) bool {
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

type ctxKey string

const principalKey ctxKey = "principal"

// WithPrincipal stores the authenticated principal in the request context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom retrieves the principal stored by the transport middleware.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
