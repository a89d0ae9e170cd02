// Package config loads the node's main configuration from YAML
// (gopkg.in/yaml.v3), matching the original's cassandra.yaml-style main
// config file; topology/proximity overrides are a separate TOML file
// handled by the snitch package.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddress  = "127.0.0.1"
	DefaultGossipPort     = 7000
	DefaultManagementPort = 7001
	DefaultEventsPort     = 7002
	DefaultClusterName    = "test-cluster"
)

// Config is the top-level node configuration, loaded once at startup.
type Config struct {
	ClusterName     string   `yaml:"cluster_name"`
	Partitioner     string   `yaml:"partitioner"`
	ListenAddress   string   `yaml:"listen_address"`
	BroadcastAddress string  `yaml:"broadcast_address"`
	NativeAddress   string   `yaml:"native_address,omitempty"`
	GossipPort      int      `yaml:"gossip_port"`
	ManagementPort  int      `yaml:"management_port"`
	EventsPort      int      `yaml:"events_port"`
	Seeds           []string `yaml:"seeds"`

	Datacenter string `yaml:"datacenter"`
	Rack       string `yaml:"rack"`

	EndpointSnitch string `yaml:"endpoint_snitch"` // "simple" or "property_file"
	TopologyFile   string `yaml:"topology_file,omitempty"`

	ReplicationStrategy string         `yaml:"replication_strategy"` // "simple" or "network_topology"
	ReplicationFactor    int           `yaml:"replication_factor,omitempty"`
	ReplicasPerDC        map[string]int `yaml:"replicas_per_dc,omitempty"`

	PeersDBPath string `yaml:"peers_db_path"`

	PhiConvictThreshold float64       `yaml:"phi_convict_threshold"`
	FailureDetectorWindow int         `yaml:"failure_detector_window"`
	GossipInterval      time.Duration `yaml:"gossip_interval"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
}

// Default returns a config with the reference defaults for a
// single-node development cluster.
func Default() *Config {
	return &Config{
		ClusterName:           DefaultClusterName,
		Partitioner:           "murmur3",
		ListenAddress:         DefaultListenAddress,
		BroadcastAddress:      DefaultListenAddress,
		GossipPort:            DefaultGossipPort,
		ManagementPort:        DefaultManagementPort,
		EventsPort:            DefaultEventsPort,
		Datacenter:            "dc1",
		Rack:                  "rack1",
		EndpointSnitch:        "simple",
		ReplicationStrategy:   "simple",
		ReplicationFactor:     1,
		PeersDBPath:           "peers.db",
		PhiConvictThreshold:   8.0,
		FailureDetectorWindow: 1000,
		GossipInterval:        time.Second,
		LogLevel:              "info",
	}
}

// Load reads and parses a YAML config file at path, filling unset
// fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the minimum set of fields a node needs to start.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("config: cluster_name is required")
	}
	if c.ListenAddress == "" {
		return fmt.Errorf("config: listen_address is required")
	}
	if c.GossipPort <= 0 || c.GossipPort > 65535 {
		return fmt.Errorf("config: gossip_port %d out of range", c.GossipPort)
	}
	switch c.EndpointSnitch {
	case "simple", "property_file":
	default:
		return fmt.Errorf("config: unknown endpoint_snitch %q", c.EndpointSnitch)
	}
	if c.EndpointSnitch == "property_file" && c.TopologyFile == "" {
		return fmt.Errorf("config: topology_file is required when endpoint_snitch is property_file")
	}
	switch c.ReplicationStrategy {
	case "simple":
		if c.ReplicationFactor <= 0 {
			return fmt.Errorf("config: replication_factor must be positive for simple strategy")
		}
	case "network_topology":
		if len(c.ReplicasPerDC) == 0 {
			return fmt.Errorf("config: replicas_per_dc is required for network_topology strategy")
		}
	default:
		return fmt.Errorf("config: unknown replication_strategy %q", c.ReplicationStrategy)
	}
	return nil
}

// GossipAddress returns the listen address:port the gossip gRPC server
// binds to.
func (c *Config) GossipAddress() string {
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.GossipPort)
}

// ManagementAddress returns the listen address:port the management
// gRPC surface binds to.
func (c *Config) ManagementAddress() string {
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.ManagementPort)
}

// EventsAddress returns the listen address:port the /v1/events
// websocket stream binds to.
func (c *Config) EventsAddress() string {
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.EventsPort)
}
