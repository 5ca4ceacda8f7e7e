package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const authorizationKey = "authorization"

// UnaryServerInterceptor authenticates every call from the authorization
// metadata key. Methods whose full name starts with one of publicPrefixes
// pass through untouched.
func UnaryServerInterceptor(tokens *TokenManager, publicPrefixes ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		for _, p := range publicPrefixes {
			if strings.HasPrefix(info.FullMethod, p) {
				return handler(ctx, req)
			}
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(authorizationKey); len(vals) > 0 {
				header = vals[0]
			}
		}

		raw, err := BearerToken(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "missing or malformed authorization")
		}
		user, err := tokens.Parse(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return handler(WithUser(ctx, user), req)
	}
}
