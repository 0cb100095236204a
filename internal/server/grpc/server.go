package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/sabo/internal/logging"
	pb "github.com/dmitrijs2005/sabo/internal/proto"
	"github.com/dmitrijs2005/sabo/internal/server/broker"
	"github.com/dmitrijs2005/sabo/internal/server/metrics"
	"github.com/dmitrijs2005/sabo/internal/server/models"
)

// DocumentStore is the document logic the handlers delegate to.
type DocumentStore interface {
	Get(ctx context.Context, userID string) (*models.Document, error)
	Put(ctx context.Context, userID string, items []byte) (*models.Document, error)
	Watch(userID string) (<-chan broker.Event, func())
}

type GRPCServer struct {
	pb.UnimplementedMirrorServiceServer
	address   string
	docs      DocumentStore
	logger    logging.Logger
	jwtSecret []byte
	limiter   *putLimiter
	metrics   *metrics.Metrics
}

// NewGRPCServer limits each user to putRate Put calls per second with the
// given burst. m may be nil.
func NewGRPCServer(a string, l logging.Logger, docs DocumentStore, secretKey string, putRate float64, putBurst int, m *metrics.Metrics) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		docs:      docs,
		jwtSecret: []byte(secretKey),
		limiter:   newPutLimiter(putRate, putBurst),
		metrics:   m,
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor, s.rateLimitInterceptor),
		grpc.ChainStreamInterceptor(s.streamMetricsInterceptor, s.streamAccessTokenInterceptor),
	)
	pb.RegisterMirrorServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
