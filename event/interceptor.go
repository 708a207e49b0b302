package event

import "context"

// Next continues with the next interceptor, or the listeners
type Next func(ctx context.Context, e Event) error

// Interceptor wraps synchronous dispatch.
// Can be used for logging, error handling, event filtering, etc.
// Not returning next's result (or not calling it) replaces the outcome of Fire.
type Interceptor func(ctx context.Context, e Event, next Next) error

// chainInterceptors wraps final with interceptors, first registered outermost
func chainInterceptors(interceptors []Interceptor, final Next) Next {
	handler := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		next := handler
		handler = func(ctx context.Context, e Event) error {
			return interceptor(ctx, e, next)
		}
	}
	return handler
}
