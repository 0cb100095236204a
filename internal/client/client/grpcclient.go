package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/common"
	"github.com/dmitrijs2005/sabo/internal/logging"
	pb "github.com/dmitrijs2005/sabo/internal/proto"
)

const (
	watchMinBackoff = 500 * time.Millisecond
	watchMaxBackoff = 30 * time.Second
)

// GRPCClient is safe for concurrent use.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.MirrorServiceClient
	logger      logging.Logger

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *GRPCClient) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, c.token()), method, req, reply, cc, opts...)
}

func (c *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, c.token()), desc, cc, method, opts...)
}

// NewMirrorClient prepares a client for endpointURL. The connection is
// established lazily, so an unreachable server is not an error here.
func NewMirrorClient(endpointURL string, logger logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, logger: logger.With("module", "mirror-client")}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.streamAccessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client: %w", err)
	}
	c.conn = conn
	c.client = pb.NewMirrorServiceClient(conn)
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	if _, err := c.client.Ping(ctx, &emptypb.Empty{}); err != nil {
		return mapError(err)
	}
	return nil
}

// FetchDocument returns the signed-in user's collection. The server derives
// the user from the token; userID only labels log lines.
func (c *GRPCClient) FetchDocument(ctx context.Context, userID string) ([]models.Item, bool, error) {
	resp, err := c.client.Fetch(ctx, &emptypb.Empty{})
	if err != nil {
		err = mapError(err)
		if errors.Is(err, common.ErrNotFound) {
			return []models.Item{}, false, nil
		}
		return nil, false, err
	}
	items, err := models.DecodeItems(resp.GetValue())
	if err != nil {
		return nil, false, fmt.Errorf("decode remote collection for %s: %w", userID, err)
	}
	return items, true, nil
}

func (c *GRPCClient) PutDocument(ctx context.Context, userID string, items []models.Item) (time.Time, error) {
	payload, err := models.EncodeItems(items)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode collection for %s: %w", userID, err)
	}
	ts, err := c.client.Put(ctx, wrapperspb.Bytes(payload))
	if err != nil {
		return time.Time{}, mapError(err)
	}
	return ts.AsTime(), nil
}

// WatchDocument streams remote snapshots to fn from a background goroutine.
// A broken stream is reopened with exponential backoff until stop is
// called or ctx ends; an unreachable mirror at start is treated the same
// way. fn is never called concurrently with itself.
func (c *GRPCClient) WatchDocument(ctx context.Context, userID string, fn func([]models.Item)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := c.client.Watch(ctx, &emptypb.Empty{})
	if err != nil {
		err = mapError(err)
		if !errors.Is(err, common.ErrUnavailable) {
			cancel()
			return nil, err
		}
		c.logger.Warn(ctx, "mirror unreachable, watch will retry", "user", userID, "error", err)
		stream = nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		backoff := watchMinBackoff
		for {
			err := c.consume(stream, userID, fn)
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn(ctx, "watch stream ended, reconnecting", "user", userID, "error", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = min(backoff*2, watchMaxBackoff)

			stream, err = c.client.Watch(ctx, &emptypb.Empty{})
			if err != nil {
				stream = nil
				continue
			}
			backoff = watchMinBackoff
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (c *GRPCClient) consume(stream grpc.ServerStreamingClient[wrapperspb.BytesValue], userID string, fn func([]models.Item)) error {
	if stream == nil {
		return common.ErrUnavailable
	}
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return mapError(err)
		}
		items, err := models.DecodeItems(msg.GetValue())
		if err != nil {
			c.logger.Warn(stream.Context(), "skipping malformed remote snapshot", "user", userID, "error", err)
			continue
		}
		fn(items)
	}
}

// mapError converts gRPC status errors to common sentinels, keeping the
// server message.
func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = common.ErrUnavailable
	case codes.Unauthenticated:
		if st.Message() == common.ErrTokenExpired.Error() {
			return common.ErrTokenExpired
		}
		sentinel = common.ErrUnauthorized
	case codes.NotFound:
		sentinel = common.ErrNotFound
	case codes.InvalidArgument:
		sentinel = common.ErrInvalidDocument
	case codes.ResourceExhausted:
		sentinel = common.ErrRateLimited
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
