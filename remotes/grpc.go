package remotes

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/reusee/hanalyzer/codecs"
	"github.com/reusee/hanalyzer/hconfigs"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/models"
	"github.com/reusee/hanalyzer/nets"
	"github.com/reusee/hanalyzer/syncs"
	"github.com/reusee/hanalyzer/tables"
	"github.com/reusee/hanalyzer/tasks"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCScheme in the server address selects the gRPC transport.
const GRPCScheme = "grpc://"

// GRPCService is the service name; methods are named after the HTTP paths'
// operations and shared with the backend.
const GRPCService = "hanalyzer.Backend"

const (
	MethodDefaultPath = "DefaultPath"
	MethodList        = "List"
	MethodManifest    = "Manifest"
	MethodSave        = "Save"
	MethodLoad        = "Load"
	MethodSeriesList  = "SeriesList"
	MethodSeriesPoll  = "SeriesPoll"
	MethodReplayInfo  = "ReplayInfo"
	MethodReplayFrame = "ReplayFrame"
)

// RequestIDKey is the metadata key of the request id.
const RequestIDKey = "x-request-id"

var serverStream = &grpc.StreamDesc{
	ServerStreams: true,
}

func fullMethod(name string) string {
	return "/" + GRPCService + "/" + name
}

// GRPCClient talks to the backend over gRPC with msgpack messages. Streamed
// payloads arrive as a sequence of byte chunks.
type GRPCClient struct {
	conn     *grpc.ClientConn
	timeouts hconfigs.Timeouts
	sem      syncs.Semaphore
	logger   logs.Logger
}

var _ Client = new(GRPCClient)

func NewGRPCClient(
	target string,
	timeouts hconfigs.Timeouts,
	maxInflight int,
	logger logs.Logger,
	options ...grpc.DialOption,
) (*GRPCClient, error) {
	options = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecs.GRPCName)),
	}, options...)
	conn, err := grpc.NewClient(target, options...)
	if err != nil {
		return nil, errors.Join(ErrTransport, err)
	}
	return &GRPCClient{
		conn:     conn,
		timeouts: timeouts,
		sem:      syncs.NewSemaphore(max(1, maxInflight)),
		logger:   logger,
	}, nil
}

// WithDialer routes connections through the nets dialer, so proxy settings
// apply to gRPC as they do to HTTP.
func WithDialer(dialer nets.Dialer) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, "tcp", addr)
	})
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) DefaultPath(ctx context.Context) *tasks.Handle[string] {
	return tasks.Go(ctx, func(ctx context.Context) (string, error) {
		var resp models.PathMessage
		err := c.do(ctx, MethodDefaultPath, c.timeouts.Unary, func(ctx context.Context) error {
			return c.conn.Invoke(ctx, fullMethod(MethodDefaultPath), &struct{}{}, &resp)
		})
		return resp.Path, err
	})
}

func (c *GRPCClient) ListDirectory(ctx context.Context, path string) *tasks.Handle[models.Listing] {
	return grpcUnary[models.PathMessage, models.Listing](ctx, c, MethodList, c.timeouts.Unary, models.PathMessage{
		Path: path,
	})
}

func (c *GRPCClient) InitialManifest(ctx context.Context) *tasks.Handle[[]models.LoadDescriptor] {
	return grpcUnary[struct{}, []models.LoadDescriptor](ctx, c, MethodManifest, c.timeouts.Unary, struct{}{})
}

func (c *GRPCClient) SaveManifest(ctx context.Context, descriptors []models.LoadDescriptor) *tasks.Handle[struct{}] {
	return grpcUnary[[]models.LoadDescriptor, struct{}](ctx, c, MethodSave, c.timeouts.Unary, descriptors)
}

func (c *GRPCClient) LoadDataset(ctx context.Context, descriptor models.LoadDescriptor) *tasks.Handle[tables.Table] {
	return grpcStream(ctx, c, MethodLoad, c.timeouts.Load, descriptor, DecodeTable)
}

func (c *GRPCClient) ListSeries(ctx context.Context) *tasks.Handle[[]models.SeriesMetadata] {
	return grpcUnary[struct{}, []models.SeriesMetadata](ctx, c, MethodSeriesList, c.timeouts.Unary, struct{}{})
}

func (c *GRPCClient) PollSeries(ctx context.Context, id models.SeriesID) *tasks.Handle[models.SeriesDelta] {
	return grpcUnary[models.SeriesRequest, models.SeriesDelta](ctx, c, MethodSeriesPoll, c.timeouts.Unary, models.SeriesRequest{
		ID: id,
	})
}

func (c *GRPCClient) ReplayInfo(ctx context.Context, session string) *tasks.Handle[models.ReplayInfo] {
	return grpcUnary[models.FrameRequest, models.ReplayInfo](ctx, c, MethodReplayInfo, c.timeouts.Unary, models.FrameRequest{
		Session: session,
	})
}

func (c *GRPCClient) ReplayFrame(ctx context.Context, session string, index uint64) *tasks.Handle[models.Frame] {
	return grpcStream(ctx, c, MethodReplayFrame, c.timeouts.Frame, models.FrameRequest{
		Session: session,
		Index:   index,
	}, codecs.Decode[models.Frame])
}

func grpcUnary[Req, Resp any](ctx context.Context, c *GRPCClient, method string, timeout time.Duration, req Req) *tasks.Handle[Resp] {
	return tasks.Go(ctx, func(ctx context.Context) (ret Resp, err error) {
		err = c.do(ctx, method, timeout, func(ctx context.Context) error {
			return c.conn.Invoke(ctx, fullMethod(method), &req, &ret)
		})
		return
	})
}

func grpcStream[Req, Resp any](ctx context.Context, c *GRPCClient, method string, timeout time.Duration, req Req, decode func([]byte) (Resp, error)) *tasks.Handle[Resp] {
	return tasks.Go(ctx, func(ctx context.Context) (ret Resp, err error) {
		err = c.do(ctx, method, timeout, func(ctx context.Context) error {
			stream, err := c.conn.NewStream(ctx, serverStream, fullMethod(method))
			if err != nil {
				return err
			}
			if err := stream.SendMsg(&req); err != nil {
				return err
			}
			if err := stream.CloseSend(); err != nil {
				return err
			}
			ret, err = Reassemble(ctx, grpcChunks{stream: stream}, decode)
			return err
		})
		return
	})
}

type grpcChunks struct {
	stream grpc.ClientStream
}

func (g grpcChunks) Next() ([]byte, error) {
	var chunk []byte
	if err := g.stream.RecvMsg(&chunk); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, grpcError(g.stream.Context(), err)
	}
	return chunk, nil
}

func (c *GRPCClient) do(
	ctx context.Context,
	method string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := c.sem.Acquire(ctx); err != nil {
		return transportError(ctx, err)
	}
	defer c.sem.Release()

	requestID := uuid.NewString()
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDKey, requestID)
	started := time.Now()
	defer func() {
		if err != nil {
			c.logger.DebugContext(ctx, "remote call failed",
				"method", method,
				"request", requestID,
				"duration", time.Since(started),
				"error", err,
			)
		}
	}()

	return grpcError(ctx, fn(ctx))
}

// grpcError maps status codes onto the error categories.
func grpcError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrDenied) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return errors.Join(ErrNotFound, err)
	case codes.PermissionDenied:
		return errors.Join(ErrDenied, err)
	case codes.DeadlineExceeded:
		return errors.Join(ErrTimeout, ErrTransport, err)
	}
	return transportError(ctx, err)
}
