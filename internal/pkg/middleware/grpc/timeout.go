package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// DefaultRPCTimeout bounds unary handlers whose caller set no deadline.
const DefaultRPCTimeout = 10 * time.Second

// UnaryServerTimeoutInterceptor applies DefaultRPCTimeout to calls without a
// deadline. A caller deadline is kept as is.
func UnaryServerTimeoutInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRPCTimeout)
		defer cancel()
	}
	return handler(ctx, req)
}
