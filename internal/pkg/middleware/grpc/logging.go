package grpc

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	"github.com/autopeer-io/efls/pkg/log"
)

// InterceptorLogger adapts l to the go-grpc-middleware logging interface.
func InterceptorLogger(l log.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		switch lvl {
		case logging.LevelDebug:
			l.Debug(msg, fields...)
		case logging.LevelInfo:
			l.Info(msg, fields...)
		case logging.LevelWarn:
			l.Warn(msg, fields...)
		default:
			l.Error(nil, msg, fields...)
		}
	})
}

// serverCodeToLevel logs successful calls at debug.
func serverCodeToLevel(code codes.Code) logging.Level {
	if code == codes.OK {
		return logging.LevelDebug
	}
	return logging.DefaultServerCodeToLevel(code)
}

// UnaryServerLoggingInterceptor logs every finished unary call with its status
// code and duration.
func UnaryServerLoggingInterceptor(l log.Logger) grpc.UnaryServerInterceptor {
	return logging.UnaryServerInterceptor(InterceptorLogger(l),
		logging.WithLogOnEvents(logging.FinishCall),
		logging.WithLevels(serverCodeToLevel),
	)
}

// StreamServerLoggingInterceptor is the streaming counterpart of
// UnaryServerLoggingInterceptor.
func StreamServerLoggingInterceptor(l log.Logger) grpc.StreamServerInterceptor {
	return logging.StreamServerInterceptor(InterceptorLogger(l),
		logging.WithLogOnEvents(logging.FinishCall),
		logging.WithLevels(serverCodeToLevel),
	)
}
