// Package gate implements capability-based authorization. Subjects are
// resolved to a Profile, a set of "resource:action" permissions, and every
// check asks for a capability rather than a role name.
package gate

import "context"

// Gate answers "may subject perform action on resource?".
type Gate[U comparable] struct {
	resolver Resolver[U]
}

func New[U comparable](resolver Resolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize returns ErrUnauthenticated for the zero subject, ErrForbidden
// when the capability is missing, and nil otherwise. Resolver errors are
// returned as is.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, resource string, action Action) error {
	var zero U
	if subject == zero {
		return ErrUnauthenticated
	}
	p, err := g.resolver.Resolve(ctx, subject)
	if err != nil {
		return err
	}
	if p == nil || !p.Can(NewPermission(resource, action)) {
		return ErrForbidden
	}
	return nil
}

// Can is Authorize as a boolean.
func (g *Gate[U]) Can(ctx context.Context, subject U, resource string, action Action) bool {
	return g.Authorize(ctx, subject, resource, action) == nil
}
