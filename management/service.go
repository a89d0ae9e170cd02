package management

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	managementv1 "github.com/ringkeeper/gossipcore/api/management/v1"
)

// Service hosts the management gRPC server and the /v1/events websocket
// stream on two separate addresses (gRPC and plain HTTP don't share a
// listener without a protocol multiplexer this module doesn't carry),
// mirroring how transport.GRPC hosts GossipService on the gossip port.
type Service struct {
	grpcAddr   string
	eventsAddr string
	srv        *grpc.Server
	http       *http.Server
	hub        *Hub
}

// New builds the management service around the gRPC address and the
// events address the /v1/events websocket stream binds to. The
// returned Hub should be passed to gossip.Engine.Subscribe so it
// receives membership events to push, and the ManagementServiceServer
// built with NewServer should be passed to Start.
func New(grpcAddr, eventsAddr string, logf func(string, ...interface{})) (*Service, *Hub, error) {
	if grpcAddr == "" || !strings.Contains(grpcAddr, ":") {
		return nil, nil, fmt.Errorf("management: invalid grpc address %q", grpcAddr)
	}
	if eventsAddr == "" || !strings.Contains(eventsAddr, ":") {
		return nil, nil, fmt.Errorf("management: invalid events address %q", eventsAddr)
	}

	hub := NewHub(logf)
	mux := http.NewServeMux()
	mux.Handle("/v1/events", hub)

	return &Service{
		grpcAddr:   grpcAddr,
		eventsAddr: eventsAddr,
		srv:        grpc.NewServer(),
		http:       &http.Server{Addr: eventsAddr, Handler: mux},
		hub:        hub,
	}, hub, nil
}

// Start binds both addresses, serves ManagementService over gRPC and
// /v1/events over plain HTTP on two goroutines, and blocks until ctx is
// cancelled or either server fails.
func (s *Service) Start(ctx context.Context, srv ManagementServiceServer) error {
	grpcLis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		return fmt.Errorf("management: listen on %s: %w", s.grpcAddr, err)
	}
	httpLis, err := net.Listen("tcp", s.eventsAddr)
	if err != nil {
		return fmt.Errorf("management: listen on %s: %w", s.eventsAddr, err)
	}

	managementv1.RegisterManagementServiceServer(s.srv, srv)
	reflection.Register(s.srv)

	errCh := make(chan error, 2)
	go func() { errCh <- s.srv.Serve(grpcLis) }()
	go func() { errCh <- s.http.Serve(httpLis) }()

	select {
	case <-ctx.Done():
		s.Stop()
		return ctx.Err()
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop gracefully shuts down both servers.
func (s *Service) Stop() {
	s.srv.GracefulStop()
	s.http.Shutdown(context.Background())
}

// ManagementServiceServer is a local alias so callers of Start don't
// need to import api/management/v1 directly.
type ManagementServiceServer = managementv1.ManagementServiceServer
