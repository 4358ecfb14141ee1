package services

import "context"

type contextKey string

const (
	ownerKey     contextKey = "owner"
	requestIDKey contextKey = "request_id"
)

// WithOwner annotates context with the owner key scoping the operation.
func WithOwner(ctx context.Context, owner string) context.Context {
	if owner == "" {
		return ctx
	}
	return context.WithValue(ctx, ownerKey, owner)
}

// OwnerFromContext extracts the owner key if present.
func OwnerFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(ownerKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(requestIDKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
