package grpcserver

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"slimelist/internal/auth"
)

type claimsKey struct{}

// AuthInterceptor requires a bearer token in the authorization metadata.
func AuthInterceptor(tokens auth.TokenService, versions auth.VersionSource) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var raw string
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = auth.BearerToken(vals[0])
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		claims, err := auth.Authenticate(ctx, tokens, versions, raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return handler(context.WithValue(ctx, claimsKey{}, claims), req)
	}
}

// LoggingInterceptor logs every call with its code and latency.
func LoggingInterceptor(logger hclog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		args := []any{"method", info.FullMethod, "code", code.String(), "latency", time.Since(start)}
		if code == codes.Internal || code == codes.Unknown {
			logger.Error("grpc call failed", append(args, "error", err)...)
		} else {
			logger.Debug("grpc call", args...)
		}
		return resp, err
	}
}

// ClaimsFromContext returns the claims attached by AuthInterceptor.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

func userFrom(ctx context.Context) (string, error) {
	claims := ClaimsFromContext(ctx)
	if claims == nil || claims.UserID == "" {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return claims.UserID, nil
}
