package node

import "errors"

var (
	ErrNodeLabelRequired        = errors.New("node: a label is required")
	ErrAddressRequired          = errors.New("node: address is required")
	ErrPortRequired             = errors.New("node: port is required")
	ErrClusterNameRequired      = errors.New("node: cluster name is required")
	ErrInvalidHeartbeatInterval = errors.New("node: gossip interval must be positive")
)
