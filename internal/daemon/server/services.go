package server

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lullaby-fm/lullaby/internal/models"
)

// ============================================================================
// gRPC Service Definition
// ============================================================================

// ControlServiceName is the fully-qualified gRPC service name.
const ControlServiceName = "lullaby.v1.Control"

// ControlServer is the server interface for the Control service. Messages are
// protobuf well-known types so no generated code is needed.
type ControlServer interface {
	Play(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Pause(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Toggle(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	SetDirectory(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

func fullMethod(name string) string {
	return "/" + ControlServiceName + "/" + name
}

// unaryHandler adapts a typed ControlServer method to a grpc.MethodHandler,
// mirroring what protoc-gen-go-grpc emits.
func unaryHandler[Req, Resp any](name string, call func(ControlServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ControlServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var controlServiceDesc = grpc.ServiceDesc{
	ServiceName: ControlServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Play", Handler: unaryHandler("Play", ControlServer.Play)},
		{MethodName: "Pause", Handler: unaryHandler("Pause", ControlServer.Pause)},
		{MethodName: "Toggle", Handler: unaryHandler("Toggle", ControlServer.Toggle)},
		{MethodName: "SetDirectory", Handler: unaryHandler("SetDirectory", ControlServer.SetDirectory)},
		{MethodName: "GetStatus", Handler: unaryHandler("GetStatus", ControlServer.GetStatus)},
		{MethodName: "Shutdown", Handler: unaryHandler("Shutdown", ControlServer.Shutdown)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lullaby/v1/control.proto",
}

// RegisterControlServer registers srv with the gRPC server.
func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&controlServiceDesc, srv)
}

// ============================================================================
// Client
// ============================================================================

// ControlClient calls the Control service of a running daemon.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

// NewControlClient wraps a client connection.
func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

// Play resumes playback.
func (c *ControlClient) Play(ctx context.Context) error {
	return c.cc.Invoke(ctx, fullMethod("Play"), &emptypb.Empty{}, &emptypb.Empty{})
}

// Pause pauses playback.
func (c *ControlClient) Pause(ctx context.Context) error {
	return c.cc.Invoke(ctx, fullMethod("Pause"), &emptypb.Empty{}, &emptypb.Empty{})
}

// Toggle flips play/pause and returns the requested state.
func (c *ControlClient) Toggle(ctx context.Context) (string, error) {
	out := &wrapperspb.StringValue{}
	if err := c.cc.Invoke(ctx, fullMethod("Toggle"), &emptypb.Empty{}, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// SetDirectory changes the track root and returns the resolved path.
func (c *ControlClient) SetDirectory(ctx context.Context, path string) (string, error) {
	out := &wrapperspb.StringValue{}
	if err := c.cc.Invoke(ctx, fullMethod("SetDirectory"), wrapperspb.String(path), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// GetStatus returns the daemon's playback status.
func (c *ControlClient) GetStatus(ctx context.Context) (*DaemonStatus, error) {
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, fullMethod("GetStatus"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return StatusFromStruct(out), nil
}

// Shutdown asks the daemon to exit.
func (c *ControlClient) Shutdown(ctx context.Context) error {
	return c.cc.Invoke(ctx, fullMethod("Shutdown"), &emptypb.Empty{}, &emptypb.Empty{})
}

// ============================================================================
// Message Types
// ============================================================================

// DaemonStatus is the decoded GetStatus reply.
type DaemonStatus struct {
	PID      int
	Uptime   time.Duration
	Playback models.PlaybackStatus
}

// StatusToStruct encodes a status as a protobuf Struct.
func StatusToStruct(s *DaemonStatus) (*structpb.Struct, error) {
	channels := make([]any, 0, len(s.Playback.Channels))
	for _, ch := range s.Playback.Channels {
		channels = append(channels, map[string]any{
			"category":   string(ch.Category),
			"dir":        ch.Dir,
			"queued":     ch.Queued,
			"paused":     ch.Paused,
			"last_track": ch.LastTrack,
		})
	}
	st, err := structpb.NewStruct(map[string]any{
		"pid":        s.PID,
		"uptime_ms":  s.Uptime.Milliseconds(),
		"state":      s.Playback.State.String(),
		"track_root": s.Playback.TrackRoot,
		"ticks":      s.Playback.Ticks,
		"channels":   channels,
	})
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}
	return st, nil
}

// StatusFromStruct decodes a GetStatus reply. Missing fields stay zero.
func StatusFromStruct(st *structpb.Struct) *DaemonStatus {
	f := st.GetFields()
	status := &DaemonStatus{
		PID:    int(f["pid"].GetNumberValue()),
		Uptime: time.Duration(f["uptime_ms"].GetNumberValue()) * time.Millisecond,
		Playback: models.PlaybackStatus{
			TrackRoot: f["track_root"].GetStringValue(),
			Ticks:     uint64(f["ticks"].GetNumberValue()),
		},
	}
	if f["state"].GetStringValue() == models.StatePaused.String() {
		status.Playback.State = models.StatePaused
	}
	for _, v := range f["channels"].GetListValue().GetValues() {
		cf := v.GetStructValue().GetFields()
		status.Playback.Channels = append(status.Playback.Channels, models.ChannelStatus{
			Category:  models.Category(cf["category"].GetStringValue()),
			Dir:       cf["dir"].GetStringValue(),
			Queued:    int(cf["queued"].GetNumberValue()),
			Paused:    cf["paused"].GetBoolValue(),
			LastTrack: cf["last_track"].GetStringValue(),
		})
	}
	return status
}
