// Package tenant threads the current school scope through call chains as an
// explicit context value. There is no ambient "current tenant" global; every
// repository query receives its school id from here or from a parameter.
package tenant

import (
	"context"
	"errors"
)

// ErrMissingTenant indicates a request reached tenant-scoped code without a school scope.
var ErrMissingTenant = errors.New("no school scope on context")

type schoolIDKey struct{}

// WithSchool returns a context carrying the given school scope.
func WithSchool(ctx context.Context, schoolID uint) context.Context {
	return context.WithValue(ctx, schoolIDKey{}, schoolID)
}

// SchoolID extracts the school scope from the context.
func SchoolID(ctx context.Context) (uint, error) {
	if value := ctx.Value(schoolIDKey{}); value != nil {
		if id, ok := value.(uint); ok && id != 0 {
			return id, nil
		}
	}
	return 0, ErrMissingTenant
}
