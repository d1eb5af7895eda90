package fiber

import "context"

type scopeKey struct{}

// WithScope returns a context carrying s as the ambient scope for
// Runtime.ForkScoped. Scope capture is explicit context propagation, never
// hidden thread-local state.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the ambient scope carried by ctx, if any.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}
