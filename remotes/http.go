package remotes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
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
)

const (
	ContentType     = "application/msgpack"
	ChunkedType     = "application/x-msgpack-chunks"
	RequestIDHeader = "X-Request-Id"
)

// Endpoint paths, shared with the backend.
const (
	PathDefaultPath = "/fs/default_path"
	PathList        = "/fs/list"
	PathManifest    = "/datasets/manifest"
	PathSave        = "/datasets/save"
	PathLoad        = "/datasets/load"
	PathSeriesList  = "/series/list"
	PathSeriesPoll  = "/series/poll"
	PathReplayInfo  = "/replay/info"
	PathReplayFrame = "/replay/frame"
)

// HTTPClient talks to the backend with msgpack bodies over HTTP POST.
type HTTPClient struct {
	baseURL  string
	client   nets.HTTPClient
	timeouts hconfigs.Timeouts
	sem      syncs.Semaphore
	logger   logs.Logger
}

var _ Client = new(HTTPClient)

// Client picks the transport by the server address scheme: grpc://host:port
// for gRPC, an http(s) URL otherwise.
func (Module) Client(
	addr hconfigs.ServerAddr,
	client nets.HTTPClient,
	dialer nets.Dialer,
	timeouts hconfigs.Timeouts,
	maxInflight hconfigs.MaxInflight,
	logger logs.Logger,
) (Client, error) {
	if target, ok := strings.CutPrefix(string(addr), GRPCScheme); ok {
		return NewGRPCClient(target, timeouts, int(maxInflight), logger, WithDialer(dialer))
	}
	return NewHTTPClient(string(addr), client, timeouts, int(maxInflight), logger), nil
}

func NewHTTPClient(
	baseURL string,
	client *http.Client,
	timeouts hconfigs.Timeouts,
	maxInflight int,
	logger logs.Logger,
) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		timeouts: timeouts,
		sem:      syncs.NewSemaphore(max(1, maxInflight)),
		logger:   logger,
	}
}

func (c *HTTPClient) DefaultPath(ctx context.Context) *tasks.Handle[string] {
	return tasks.Go(ctx, func(ctx context.Context) (string, error) {
		resp, err := call[struct{}, models.PathMessage](ctx, c, PathDefaultPath, c.timeouts.Unary, struct{}{})
		return resp.Path, err
	})
}

func (c *HTTPClient) ListDirectory(ctx context.Context, path string) *tasks.Handle[models.Listing] {
	return unary[models.PathMessage, models.Listing](ctx, c, PathList, c.timeouts.Unary, models.PathMessage{
		Path: path,
	})
}

func (c *HTTPClient) InitialManifest(ctx context.Context) *tasks.Handle[[]models.LoadDescriptor] {
	return unary[struct{}, []models.LoadDescriptor](ctx, c, PathManifest, c.timeouts.Unary, struct{}{})
}

func (c *HTTPClient) SaveManifest(ctx context.Context, descriptors []models.LoadDescriptor) *tasks.Handle[struct{}] {
	return unary[[]models.LoadDescriptor, struct{}](ctx, c, PathSave, c.timeouts.Unary, descriptors)
}

func (c *HTTPClient) LoadDataset(ctx context.Context, descriptor models.LoadDescriptor) *tasks.Handle[tables.Table] {
	return stream(ctx, c, PathLoad, c.timeouts.Load, descriptor, DecodeTable)
}

func (c *HTTPClient) ListSeries(ctx context.Context) *tasks.Handle[[]models.SeriesMetadata] {
	return unary[struct{}, []models.SeriesMetadata](ctx, c, PathSeriesList, c.timeouts.Unary, struct{}{})
}

func (c *HTTPClient) PollSeries(ctx context.Context, id models.SeriesID) *tasks.Handle[models.SeriesDelta] {
	return unary[models.SeriesRequest, models.SeriesDelta](ctx, c, PathSeriesPoll, c.timeouts.Unary, models.SeriesRequest{
		ID: id,
	})
}

func (c *HTTPClient) ReplayInfo(ctx context.Context, session string) *tasks.Handle[models.ReplayInfo] {
	return unary[models.FrameRequest, models.ReplayInfo](ctx, c, PathReplayInfo, c.timeouts.Unary, models.FrameRequest{
		Session: session,
	})
}

func (c *HTTPClient) ReplayFrame(ctx context.Context, session string, index uint64) *tasks.Handle[models.Frame] {
	return stream(ctx, c, PathReplayFrame, c.timeouts.Frame, models.FrameRequest{
		Session: session,
		Index:   index,
	}, codecs.Decode[models.Frame])
}

// DecodeTable decodes and validates a streamed table.
func DecodeTable(data []byte) (tables.Table, error) {
	table, err := codecs.Decode[tables.Table](data)
	if err != nil {
		return table, err
	}
	if err := table.Validate(); err != nil {
		return tables.Table{}, errors.Join(ErrDecode, err)
	}
	return table, nil
}

func unary[Req, Resp any](ctx context.Context, c *HTTPClient, path string, timeout time.Duration, req Req) *tasks.Handle[Resp] {
	return tasks.Go(ctx, func(ctx context.Context) (Resp, error) {
		return call[Req, Resp](ctx, c, path, timeout, req)
	})
}

func call[Req, Resp any](ctx context.Context, c *HTTPClient, path string, timeout time.Duration, req Req) (ret Resp, err error) {
	err = c.do(ctx, path, timeout, req, func(ctx context.Context, body io.Reader) error {
		data, err := io.ReadAll(body)
		if err != nil {
			return transportError(ctx, err)
		}
		ret, err = codecs.Decode[Resp](data)
		return err
	})
	return
}

func stream[Req, Resp any](ctx context.Context, c *HTTPClient, path string, timeout time.Duration, req Req, decode func([]byte) (Resp, error)) *tasks.Handle[Resp] {
	return tasks.Go(ctx, func(ctx context.Context) (ret Resp, err error) {
		err = c.do(ctx, path, timeout, req, func(ctx context.Context, body io.Reader) error {
			ret, err = Reassemble(ctx, codecs.NewChunkReader(body), decode)
			return err
		})
		return
	})
}

func (c *HTTPClient) do(
	ctx context.Context,
	path string,
	timeout time.Duration,
	req any,
	handle func(ctx context.Context, body io.Reader) error,
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
	started := time.Now()
	defer func() {
		if err != nil {
			c.logger.DebugContext(ctx, "remote call failed",
				"path", path,
				"request", requestID,
				"duration", time.Since(started),
				"error", err,
			)
		}
	}()

	body, err := codecs.Encode(req)
	if err != nil {
		return errors.Join(ErrTransport, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Join(ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", ContentType)
	httpReq.Header.Set(RequestIDHeader, requestID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return handle(ctx, resp.Body)
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(data))
	if r, err := codecs.Decode[models.ErrorResponse](data); err == nil && r.Message != "" {
		msg = r.Message
	}
	err := fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.Join(ErrNotFound, err)
	case http.StatusForbidden:
		return errors.Join(ErrDenied, err)
	}
	return errors.Join(ErrTransport, err)
}
