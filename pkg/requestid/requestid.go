// Package requestid carries the inbound X-Request-ID through a context so
// outbound calls can forward it.
package requestid

import "context"

// Header is the canonical request id header.
const Header = "X-Request-ID"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying id. An empty id leaves ctx unchanged.
func NewContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
