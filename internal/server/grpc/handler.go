package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/sabo/internal/common"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Fetch(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	doc, err := s.docs.Get(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.Bytes(doc.Items), nil
}

func (s *GRPCServer) Put(ctx context.Context, req *wrapperspb.BytesValue) (*timestamppb.Timestamp, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	doc, err := s.docs.Put(ctx, userID, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return timestamppb.New(doc.UpdatedAt), nil
}

// Watch sends the current document, if any, and then every newer version
// until the client goes away.
func (s *GRPCServer) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[wrapperspb.BytesValue]) error {
	ctx := stream.Context()
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "unauthorized")
	}

	// subscribe before reading so no write slips between the two
	events, cancel := s.docs.Watch(userID)
	defer cancel()

	s.metrics.WatchOpened()
	defer s.metrics.WatchClosed()
	s.logger.Info(ctx, "watch opened", "user", userID)

	var last int64
	doc, err := s.docs.Get(ctx, userID)
	switch {
	case err == nil:
		if err := stream.Send(wrapperspb.Bytes(doc.Items)); err != nil {
			return err
		}
		last = doc.Version
	case !errors.Is(err, common.ErrNotFound):
		return s.toStatus(ctx, err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "watch closed", "user", userID)
			return nil
		case ev, ok := <-events:
			if !ok {
				return status.Error(codes.Unavailable, "server shutting down")
			}
			if ev.Version <= last {
				continue
			}
			if err := stream.Send(wrapperspb.Bytes(ev.Items)); err != nil {
				return err
			}
			last = ev.Version
		}
	}
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, "no document")
	case errors.Is(err, common.ErrInvalidDocument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
