package backends

import (
	"context"
	"errors"
	"io/fs"

	"github.com/reusee/hanalyzer/codecs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/remotes"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCServer serves the same operations as Handler over gRPC. Streamed
// payloads are sent as byte chunk messages.
func (b *Backend) GRPCServer(options ...grpc.ServerOption) *grpc.Server {
	server := grpc.NewServer(options...)
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: remotes.GRPCService,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			unaryMethod(b, remotes.MethodDefaultPath, func(struct{}) (models.PathMessage, error) {
				return models.PathMessage{
					Path: b.root,
				}, nil
			}),
			unaryMethod(b, remotes.MethodList, func(req models.PathMessage) (models.Listing, error) {
				return b.List(req.Path)
			}),
			unaryMethod(b, remotes.MethodManifest, func(struct{}) ([]models.LoadDescriptor, error) {
				return b.Manifest(), nil
			}),
			unaryMethod(b, remotes.MethodSave, func(req []models.LoadDescriptor) (struct{}, error) {
				b.SetManifest(req)
				return struct{}{}, nil
			}),
			unaryMethod(b, remotes.MethodSeriesList, func(struct{}) ([]models.SeriesMetadata, error) {
				return b.seriesList(), nil
			}),
			unaryMethod(b, remotes.MethodSeriesPoll, func(req models.SeriesRequest) (models.SeriesDelta, error) {
				return b.poll(req.ID)
			}),
			unaryMethod(b, remotes.MethodReplayInfo, func(req models.FrameRequest) (models.ReplayInfo, error) {
				return b.replayInfo(req.Session)
			}),
		},
		Streams: []grpc.StreamDesc{
			streamMethod(b, remotes.MethodLoad, func(req models.LoadDescriptor) (any, error) {
				return b.Load(req)
			}),
			streamMethod(b, remotes.MethodReplayFrame, func(req models.FrameRequest) (any, error) {
				return b.frame(req.Session, req.Index)
			}),
		},
	}, nil)
	return server
}

func unaryMethod[Req, Resp any](b *Backend, name string, fn func(Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			var req Req
			if err := dec(&req); err != nil {
				return nil, b.grpcFail(ctx, name, status.Error(codes.InvalidArgument, err.Error()))
			}
			resp, err := fn(req)
			if err != nil {
				return nil, b.grpcFail(ctx, name, err)
			}
			return &resp, nil
		},
	}
}

func streamMethod[Req any](b *Backend, name string, fn func(Req) (any, error)) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName:    name,
		ServerStreams: true,
		Handler: func(_ any, stream grpc.ServerStream) error {
			ctx := stream.Context()
			var req Req
			if err := stream.RecvMsg(&req); err != nil {
				return b.grpcFail(ctx, name, status.Error(codes.InvalidArgument, err.Error()))
			}
			value, err := fn(req)
			if err != nil {
				return b.grpcFail(ctx, name, err)
			}
			data, err := codecs.Encode(value)
			if err != nil {
				return b.grpcFail(ctx, name, err)
			}
			for len(data) > 0 {
				n := min(len(data), max(1, b.chunkSize))
				chunk := data[:n]
				if err := stream.SendMsg(&chunk); err != nil {
					return err
				}
				data = data[n:]
			}
			return nil
		},
	}
}

// grpcFail logs err and converts it to a status with the code matching
// failFor's HTTP status.
func (b *Backend) grpcFail(ctx context.Context, method string, err error) error {
	var requestID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(remotes.RequestIDKey); len(ids) > 0 {
			requestID = ids[0]
		}
	}
	if _, ok := status.FromError(err); !ok {
		code := codes.FailedPrecondition
		switch {
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, errNotFound):
			code = codes.NotFound
		case errors.Is(err, errEscape), errors.Is(err, errNotText), errors.Is(err, fs.ErrPermission):
			code = codes.PermissionDenied
		}
		err = status.Error(code, err.Error())
	}
	b.logger.InfoContext(ctx, "request failed",
		"method", method,
		"request", requestID,
		"code", status.Code(err),
		"error", err,
	)
	return err
}
