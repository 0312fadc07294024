package adaptor

import (
	"context"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var readMethods = map[string]bool{
	MethodListRooms:       true,
	MethodListUserRooms:   true,
	MethodGetRoom:         true,
	MethodGetStats:        true,
	MethodListTelemetry:   true,
	MethodSearchTelemetry: true,
}

func classifyMethodKind(fullMethod string) string {
	name := fullMethod[strings.LastIndex(fullMethod, "/")+1:]
	if readMethods[name] {
		return "read"
	}
	return "write"
}

// LoggingInterceptor logs one line per unary call with its status code and
// trace id.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := codes.OK
		if err != nil {
			if st, ok := status.FromError(err); ok {
				code = st.Code()
			} else {
				code = codes.Unknown
			}
		}
		var traceID string
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		log.Printf("grpc: method=%s kind=%s code=%s duration=%s trace_id=%s",
			info.FullMethod, classifyMethodKind(info.FullMethod), code, time.Since(start), traceID)
		return resp, err
	}
}

// StreamLoggingInterceptor logs subscription lifetimes.
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		log.Printf("grpc: stream=%s code=%s duration=%s", info.FullMethod, status.Code(err), time.Since(start))
		return err
	}
}
