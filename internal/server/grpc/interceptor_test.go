package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/logging"
	pb "github.com/dmitrijs2005/sabo/internal/proto"
	"github.com/dmitrijs2005/sabo/internal/server/auth"
)

const testSecret = "secret"

func newTestServer(t *testing.T) *GRPCServer {
	t.Helper()
	s, err := NewGRPCServer("127.0.0.1:0", logging.NewNop(), nil, testSecret, 1, 1, nil)
	require.NoError(t, err)
	return s
}

func tokenCtx(t *testing.T, userID string, validity time.Duration) context.Context {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(testSecret), validity)
	require.NoError(t, err)
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, tok))
}

func captureUser(called *string) grpc.UnaryHandler {
	return func(ctx context.Context, req any) (any, error) {
		id, _ := userIDFromContext(ctx)
		*called = id
		return "ok", nil
	}
}

func TestAccessTokenInterceptor_PingIsPublic(t *testing.T) {
	s := newTestServer(t)
	info := &grpc.UnaryServerInfo{FullMethod: pb.MirrorService_Ping_FullMethodName}

	var user string
	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, captureUser(&user))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Empty(t, user)
}

func TestAccessTokenInterceptor(t *testing.T) {
	s := newTestServer(t)
	info := &grpc.UnaryServerInfo{FullMethod: pb.MirrorService_Fetch_FullMethodName}

	tests := []struct {
		name    string
		ctx     context.Context
		wantMsg string
		user    string
	}{
		{name: "missing", ctx: context.Background(), wantMsg: "missing token"},
		{
			name:    "garbage",
			ctx:     metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, "nope")),
			wantMsg: "invalid token",
		},
		{name: "expired", ctx: tokenCtx(t, "u1", -time.Minute), wantMsg: common.ErrTokenExpired.Error()},
		{name: "valid", ctx: tokenCtx(t, "u1", time.Hour), user: "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var user string
			_, err := s.accessTokenInterceptor(tt.ctx, nil, info, captureUser(&user))
			if tt.wantMsg != "" {
				st, _ := status.FromError(err)
				assert.Equal(t, codes.Unauthenticated, st.Code())
				assert.Equal(t, tt.wantMsg, st.Message())
				assert.Empty(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.user, user)
		})
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f fakeStream) Context() context.Context { return f.ctx }

func TestStreamAccessTokenInterceptor(t *testing.T) {
	s := newTestServer(t)
	info := &grpc.StreamServerInfo{FullMethod: pb.MirrorService_Watch_FullMethodName, IsServerStream: true}

	var user string
	handler := func(_ any, ss grpc.ServerStream) error {
		user, _ = userIDFromContext(ss.Context())
		return nil
	}

	err := s.streamAccessTokenInterceptor(nil, fakeStream{ctx: context.Background()}, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = s.streamAccessTokenInterceptor(nil, fakeStream{ctx: tokenCtx(t, "u7", time.Hour)}, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "u7", user)
}

func TestRateLimitInterceptor_PerUser(t *testing.T) {
	s := newTestServer(t)
	s.limiter = newPutLimiter(0.001, 1)
	put := &grpc.UnaryServerInfo{FullMethod: pb.MirrorService_Put_FullMethodName}
	fetch := &grpc.UnaryServerInfo{FullMethod: pb.MirrorService_Fetch_FullMethodName}
	ok := func(context.Context, any) (any, error) { return "ok", nil }

	u1 := context.WithValue(context.Background(), userIDKey, "u1")
	u2 := context.WithValue(context.Background(), userIDKey, "u2")

	_, err := s.rateLimitInterceptor(u1, nil, put, ok)
	require.NoError(t, err)
	_, err = s.rateLimitInterceptor(u1, nil, put, ok)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = s.rateLimitInterceptor(u2, nil, put, ok)
	assert.NoError(t, err)
	_, err = s.rateLimitInterceptor(u1, nil, fetch, ok)
	assert.NoError(t, err, "only Put is limited")
}

func TestPutLimiter_MinimumBurst(t *testing.T) {
	l := newPutLimiter(0.001, 0)
	assert.True(t, l.Allow("u"))
	assert.False(t, l.Allow("u"))
}
