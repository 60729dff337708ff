package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/db4e/db4e-supervisor/internal/observability/metrics"
	"github.com/db4e/db4e-supervisor/internal/observability/tracing"
	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/rs/zerolog/log"
)

const (
	maxRequestSize = 64 * 1024

	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Controller performs the actions requested over the socket. The returned
// string is reported to the caller as msg.
//
//go:generate mockery --name=Controller --output=../../tests/mocks --outpkg=mocks --filename=mock_controller.go
type Controller interface {
	Start(ctx context.Context, component types.Component, instance string) (string, error)
	Stop(ctx context.Context, component types.Component, instance string) (string, error)
}

type Server struct {
	socketPath   string
	controller   Controller
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewServer(socketPath string, controller Controller, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		socketPath:   socketPath,
		controller:   controller,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Listen binds the socket, replacing a stale socket file. Failing to bind
// is fatal for the supervisor.
func (s *Server) Listen() (net.Listener, error) {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, types.NewError(types.Fatal, fmt.Errorf("removing stale socket %s: %w", s.socketPath, err))
	}

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return nil, types.NewError(types.Fatal, fmt.Errorf("creating socket dir: %w", err))
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return nil, types.NewError(types.Fatal, fmt.Errorf("listening on %s: %w", s.socketPath, err))
	}

	return listener, nil
}

// Serve accepts connections until ctx is done. Each connection is served to
// completion before the next one is accepted. The socket file is removed on
// return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Ctx(ctx).Info().Str("path", s.socketPath).Msg("control socket listening")

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			// back off on errors such as running out of file descriptors
			delay = min(max(2*delay, minAcceptDelay), maxAcceptDelay)
			log.Ctx(ctx).Error().Err(err).Dur("retry_in", delay).Msg("accept failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		s.handleConnection(tracing.InjectTraceID(ctx), conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))

	var req Request
	if err := json.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		metrics.RecordIPCRequest("invalid", true)
		s.write(ctx, conn, failure(types.NewErrorWithMsg(types.ProtocolError, "invalid request: %v", err).Error()))
		return
	}

	resp := s.safeDispatch(ctx, &req)
	metrics.RecordIPCRequest(req.Op, resp.Failed())
	s.write(ctx, conn, resp)
}

// safeDispatch turns a panicking request into an error reply so the accept
// loop keeps serving.
func (s *Server) safeDispatch(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).Error().
				Str("op", req.Op).
				Interface("panic", r).
				Msg("control request panicked")
			resp = failure(fmt.Sprintf("internal error: %v", r))
		}
	}()

	return s.dispatch(ctx, req)
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	logger := log.Ctx(ctx).With().
		Str("op", req.Op).
		Str("component", req.Component).
		Str("instance", req.Instance).
		Logger()

	var (
		action func(context.Context, types.Component, string) (string, error)
		result string
	)
	switch req.Op {
	case OpPing:
		return &Response{Result: ResultPong}
	case OpStart:
		action, result = s.controller.Start, ResultStarted
	case OpStop:
		action, result = s.controller.Stop, ResultStopped
	default:
		logger.Warn().Msg("unknown op")
		return &Response{Error: errUnknownOp}
	}

	component, err := types.ParseComponent(req.Component)
	if err != nil {
		return failure(err.Error())
	}

	msg, err := action(ctx, component, req.Instance)
	if err != nil {
		logger.Error().Err(err).Msg("control request failed")
		return failure(err.Error())
	}

	logger.Info().Msg("control request served")
	return &Response{Result: result, Msg: msg}
}

func (s *Server) write(ctx context.Context, conn net.Conn, resp *Response) {
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to write control response")
	}
}
