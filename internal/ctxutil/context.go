// Package ctxutil carries per-turn tracing values through a context.
package ctxutil

import "context"

// key is unexported so no other package can collide with these entries.
type key int

const (
	userIDKey key = iota
	requestIDKey
	transitionKey
)

func with(ctx context.Context, k key, v string) context.Context {
	return context.WithValue(ctx, k, v)
}

func get(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// WithUserID tags ctx with the user whose session the turn belongs to.
func WithUserID(ctx context.Context, userID string) context.Context {
	return with(ctx, userIDKey, userID)
}

// GetUserID returns the user id, or "".
func GetUserID(ctx context.Context) string { return get(ctx, userIDKey) }

// MustGetUserID panics when ctx has no user id. Handlers call it only
// behind the middleware that sets one.
func MustGetUserID(ctx context.Context) string {
	id := GetUserID(ctx)
	if id == "" {
		panic("ctxutil: user id not set")
	}
	return id
}

// WithRequestID tags ctx with the HTTP request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request id, or "".
func GetRequestID(ctx context.Context) string { return get(ctx, requestIDKey) }

// WithTransition records which dialogue transition handles the turn.
func WithTransition(ctx context.Context, transition string) context.Context {
	return with(ctx, transitionKey, transition)
}

// GetTransition returns the transition name, or "".
func GetTransition(ctx context.Context) string { return get(ctx, transitionKey) }

// PreserveTracing copies the tracing values of ctx onto a fresh background
// context. Work queued past the end of a request uses it so log lines keep
// their ids without inheriting the request's cancellation or retaining it.
func PreserveTracing(ctx context.Context) context.Context {
	out := context.Background()
	for _, k := range []key{userIDKey, requestIDKey, transitionKey} {
		if v := get(ctx, k); v != "" {
			out = with(out, k, v)
		}
	}
	return out
}
