// Package server implements the gRPC control server for the daemon.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lullaby-fm/lullaby/internal/config"
	"github.com/lullaby-fm/lullaby/internal/daemon/controller"
	"github.com/lullaby-fm/lullaby/internal/models"
)

// Playback is the part of the controller the server needs.
type Playback interface {
	Sender() controller.Sender
	Status() models.PlaybackStatus
}

// Options configures a Server.
type Options struct {
	// PersistTrackRoot stores a new track root and returns the resolved
	// path. Defaults to config.SaveTrackRoot.
	PersistTrackRoot func(path string) (string, error)

	// OnShutdown is called (asynchronously) when a client requests shutdown.
	OnShutdown func()
}

// Server is the daemon's gRPC server.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	port       int
	startedAt  time.Time
	logger     zerolog.Logger
}

// New creates a new server listening on the specified loopback port.
// Pass port 0 for dynamic allocation.
func New(port int, playback Playback, opts Options, logger zerolog.Logger) (*Server, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	srv := NewWithListener(listener, playback, opts, logger)
	return srv, nil
}

// NewWithListener creates a server on an existing listener.
func NewWithListener(listener net.Listener, playback Playback, opts Options, logger zerolog.Logger) *Server {
	if opts.PersistTrackRoot == nil {
		opts.PersistTrackRoot = config.SaveTrackRoot
	}

	port := 0
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	srv := &Server{
		grpcServer: grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger))),
		listener:   listener,
		port:       port,
		startedAt:  time.Now(),
		logger:     logger,
	}

	RegisterControlServer(srv.grpcServer, &controlService{
		server:   srv,
		playback: playback,
		opts:     opts,
	})

	return srv
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		ev := logger.Debug()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str("method", info.FullMethod).Dur("took", time.Since(start)).Msg("rpc")
		return resp, err
	}
}

// ============================================================================
// Service Implementation
// ============================================================================

type controlService struct {
	server   *Server
	playback Playback
	opts     Options
}

func (s *controlService) send(cmd controller.Command) error {
	if err := s.playback.Sender().Send(cmd); err != nil {
		return status.Errorf(codes.Unavailable, "playback controller: %v", err)
	}
	return nil
}

func (s *controlService) Play(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.send(controller.Play()); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func (s *controlService) Pause(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.send(controller.Pause()); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

// Toggle decides from the last published state, so two toggles within one
// tick both act on the same state.
func (s *controlService) Toggle(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	cmd, next := controller.Pause(), models.StatePaused
	if s.playback.Status().State == models.StatePaused {
		cmd, next = controller.Play(), models.StatePlaying
	}
	if err := s.send(cmd); err != nil {
		return nil, err
	}
	return wrapperspb.String(next.String()), nil
}

func (s *controlService) SetDirectory(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	path := req.GetValue()
	if path == "" {
		return nil, status.Error(codes.InvalidArgument, "track directory is required")
	}
	// Relative paths would resolve against the daemon's working directory,
	// not the caller's; clients expand them before calling.
	if !filepath.IsAbs(path) {
		return nil, status.Errorf(codes.InvalidArgument, "track directory must be absolute: %q", path)
	}
	resolved := filepath.Clean(path)
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "track directory %s: %v", resolved, err)
	}
	if !info.IsDir() {
		return nil, status.Errorf(codes.InvalidArgument, "%s is not a directory", resolved)
	}

	saved, err := s.opts.PersistTrackRoot(resolved)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "save settings: %v", err)
	}
	if err := s.send(controller.SetDirectory(saved)); err != nil {
		return nil, err
	}
	return wrapperspb.String(saved), nil
}

func (s *controlService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := StatusToStruct(&DaemonStatus{
		PID:      os.Getpid(),
		Uptime:   time.Since(s.server.startedAt),
		Playback: s.playback.Status(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func (s *controlService) Shutdown(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if s.opts.OnShutdown != nil {
		// Reply before the process starts tearing down the server.
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.opts.OnShutdown()
		}()
	}
	return &emptypb.Empty{}, nil
}
