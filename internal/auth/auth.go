package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ModeAPIKey enables key checking.
const ModeAPIKey = "apikey"

// Guard holds the resolved key settings shared by both transports.
type Guard struct {
	mode   string
	header string
	key    string
}

// NewGuard returns a Guard. header should be lowercase; gRPC normalises
// metadata keys and net/http canonicalises header names on lookup.
func NewGuard(mode, header, key string) Guard {
	return Guard{mode: mode, header: header, key: key}
}

// Enabled reports whether requests must carry the key.
func (g Guard) Enabled() bool {
	return g.mode == ModeAPIKey && g.key != ""
}

func (g Guard) valid(got string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(g.key)) == 1
}

// UnaryInterceptor returns a gRPC interceptor that rejects calls without the
// key with codes.Unauthenticated.
func (g Guard) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !g.Enabled() {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		vals := md.Get(g.header)
		if len(vals) == 0 || !g.valid(vals[0]) {
			return nil, status.Error(codes.Unauthenticated, "invalid api key")
		}
		return handler(ctx, req)
	}
}

// Middleware wraps next so that requests without the key get 401.
func (g Guard) Middleware(next http.Handler) http.Handler {
	if !g.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.valid(r.Header.Get(g.header)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
