package transport

import (
	"fmt"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	gossipv1 "github.com/ringkeeper/gossipcore/api/gossip/v1"
	"github.com/ringkeeper/gossipcore/gossip"
)

// GRPC hosts the local node's GossipService endpoint.
type GRPC struct {
	addr string
	srv  *grpc.Server
	lis  net.Listener
	id   string
}

func (g *GRPC) setupTcp() (net.Listener, error) {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return lis, nil
}

func (g *GRPC) setupServices(engine *gossip.Engine) {
	gossipv1.RegisterGossipServiceServer(g.srv, NewGossipServer(engine))
}

// Start binds the configured address, registers GossipService, and
// blocks serving until Stop is called.
func (g *GRPC) Start(engine *gossip.Engine) error {
	lis, err := g.setupTcp()
	if err != nil {
		return fmt.Errorf("failed to setup TCP: %w", err)
	}
	g.lis = lis

	g.setupServices(engine)
	reflection.Register(g.srv)

	return g.srv.Serve(g.lis)
}

// Stop gracefully shuts down the listener.
func (g *GRPC) Stop() {
	g.srv.GracefulStop()
}

func NewGRPC(addr string, id string) (*GRPC, error) {
	if addr == "" || !strings.Contains(addr, ":") {
		return nil, fmt.Errorf("invalid address: %s", addr)
	}
	if id == "" {
		return nil, fmt.Errorf("id must be provided")
	}
	return &GRPC{
		addr: addr,
		srv:  grpc.NewServer(),
		id:   id,
	}, nil
}
