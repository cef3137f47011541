// Package server exposes the directory service over gRPC.
package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/devfs/pkg/api"
	"github.com/example/devfs/pkg/devfs"
	"github.com/example/devfs/pkg/fs"
	"github.com/example/devfs/pkg/vfs"
)

// Config contains the gRPC server configuration
type Config struct {
	// Network address to listen on (e.g. ":7070")
	ListenAddress string

	// Maximum concurrent requests
	MaxConcurrent int

	// Maximum accepted connections; zero means unlimited
	MaxConnections int

	// Per-request timeout; zero means none
	RequestTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:  ":7070",
		MaxConcurrent:  100,
		MaxConnections: 256,
		RequestTimeout: 30 * time.Second,
	}
}

// DirectoryService is what the server needs from the directory layer.
type DirectoryService interface {
	fs.DirectoryService
	Stats() devfs.Stats
}

// DirServer implements api.DirServiceServer
type DirServer struct {
	api.UnimplementedDirServiceServer

	config *Config
	svc    DirectoryService
	logger log.FieldLogger

	// Handle references carry the instance id; references issued by
	// another instance are stale.
	instance   uuid.UUID
	instanceID uint32

	// Worker pool for limiting concurrent requests
	workerPool chan struct{}

	grpcServer *grpc.Server
	stopOnce   sync.Once
}

// Option configures a DirServer.
type Option func(*DirServer)

// WithLogger sets the logger.
func WithLogger(l log.FieldLogger) Option {
	return func(s *DirServer) {
		s.logger = l
	}
}

// NewDirServer creates a new server over svc
func NewDirServer(config *Config, svc DirectoryService, opts ...Option) (*DirServer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if svc == nil {
		return nil, fmt.Errorf("directory service is required")
	}
	if config.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("max concurrent requests must be positive, got %d", config.MaxConcurrent)
	}

	instance := uuid.New()
	instanceID := binary.BigEndian.Uint32(instance[:4])
	if instanceID == 0 {
		instanceID = 1
	}

	s := &DirServer{
		config:     config,
		svc:        svc,
		logger:     log.StandardLogger(),
		instance:   instance,
		instanceID: instanceID,
		workerPool: make(chan struct{}, config.MaxConcurrent),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("instance", instance.String())

	s.grpcServer = grpc.NewServer()
	api.RegisterDirServiceServer(s.grpcServer, s)
	return s, nil
}

// InstanceID returns the id embedded in the handle references this server issues.
func (s *DirServer) InstanceID() uint32 {
	return s.instanceID
}

// Start listens on the configured address and serves until Stop
func (s *DirServer) Start() error {
	lis, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if s.config.MaxConnections > 0 {
		lis = netutil.LimitListener(lis, s.config.MaxConnections)
	}

	s.logger.Infof("Directory server starting on %s", lis.Addr())
	return s.Serve(lis)
}

// Serve serves gRPC requests on lis until Stop
func (s *DirServer) Serve(lis net.Listener) error {
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop waits for in-flight requests and stops the server
func (s *DirServer) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Directory server stopping")
		s.grpcServer.GracefulStop()
	})
}

// acquireWorker gets a worker from the pool or times out
func (s *DirServer) acquireWorker(ctx context.Context) error {
	select {
	case s.workerPool <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// releaseWorker returns a worker to the pool
func (s *DirServer) releaseWorker() {
	<-s.workerPool
}

// processRequest handles common request processing logic
func (s *DirServer) processRequest(ctx context.Context, op string, process func() (interface{}, error)) (interface{}, error) {
	logger := s.logger.WithFields(log.Fields{
		"op":         op,
		"request_id": uuid.NewString(),
		"client":     clientAddr(ctx),
	})
	logger.Debug("request")
	startTime := time.Now()

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	if err := s.acquireWorker(ctx); err != nil {
		logger.Warnf("no worker available: %v", err)
		return nil, status.Errorf(codes.ResourceExhausted, "%s: server busy: %v", op, err)
	}
	defer s.releaseWorker()

	result, err := process()

	duration := time.Since(startTime)
	if err != nil {
		err = toStatus(err)
		logger.WithFields(log.Fields{
			"code":     status.Code(err).String(),
			"duration": duration.String(),
		}).Warnf("request failed: %v", err)
		return nil, err
	}
	logger.WithField("duration", duration.String()).Debug("response")
	return result, nil
}

func clientAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

func (s *DirServer) encodeRef(id fs.HandleID) []byte {
	return fs.HandleRef{InstanceID: s.instanceID, ID: id}.Serialize()
}

// decodeRef validates a handle reference and returns its handle id
func (s *DirServer) decodeRef(op string, data []byte) (fs.HandleID, error) {
	ref, err := fs.DeserializeHandleRef(data)
	if err != nil {
		return 0, statusWithReason(codes.InvalidArgument, api.ReasonInvalidHandle, fmt.Sprintf("%s: %v", op, err))
	}
	if ref.InstanceID != s.instanceID {
		return 0, fs.NewError(op, ref.String(), fs.ErrStale)
	}
	return ref.ID, nil
}

// OpenDir implements the OpenDir RPC method
func (s *DirServer) OpenDir(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	result, err := s.processRequest(ctx, "OpenDir", func() (interface{}, error) {
		id, err := s.svc.OpenDir(req.GetValue())
		if err != nil {
			return nil, err
		}
		return wrapperspb.Bytes(s.encodeRef(id)), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*wrapperspb.BytesValue), nil
}

// ReadDir implements the ReadDir RPC method. It returns one marshaled
// vfs.Dirent, or an empty value once the scan is exhausted.
func (s *DirServer) ReadDir(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	result, err := s.processRequest(ctx, "ReadDir", func() (interface{}, error) {
		id, err := s.decodeRef("readdir", req.GetValue())
		if err != nil {
			return nil, err
		}

		var e fs.Entry
		more, err := s.svc.ReadDir(id, &e)
		if err != nil {
			return nil, err
		}
		if !more {
			return &wrapperspb.BytesValue{}, nil
		}

		var d vfs.Dirent
		if err := d.Fill(e); err != nil {
			return nil, err
		}
		data, err := d.MarshalBinary()
		if err != nil {
			return nil, err
		}
		return wrapperspb.Bytes(data), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*wrapperspb.BytesValue), nil
}

// CloseDir implements the CloseDir RPC method
func (s *DirServer) CloseDir(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	result, err := s.processRequest(ctx, "CloseDir", func() (interface{}, error) {
		id, err := s.decodeRef("closedir", req.GetValue())
		if err != nil {
			return nil, err
		}
		if err := s.svc.CloseDir(id); err != nil {
			return nil, err
		}
		return &emptypb.Empty{}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*emptypb.Empty), nil
}

// Stat implements the Stat RPC method
func (s *DirServer) Stat(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	result, err := s.processRequest(ctx, "Stat", func() (interface{}, error) {
		st := s.svc.Stats()
		return structpb.NewStruct(map[string]interface{}{
			"instance":     s.instance.String(),
			"entries":      st.Entries,
			"open_handles": st.OpenHandles,
			"opened":       st.Opened,
			"reads":        st.Reads,
			"closed":       st.Closed,
			"errors":       st.Errors,
		})
	})
	if err != nil {
		return nil, err
	}
	return result.(*structpb.Struct), nil
}
