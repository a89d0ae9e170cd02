package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFillsDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cluster_name: prod-ring
gossip_port: 7777
replication_factor: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod-ring", cfg.ClusterName)
	require.Equal(t, 7777, cfg.GossipPort)
	require.Equal(t, 3, cfg.ReplicationFactor)
	require.Equal(t, "simple", cfg.EndpointSnitch, "unset fields keep Default()'s value")
}

func TestValidateRejectsPropertyFileSnitchWithoutTopology(t *testing.T) {
	cfg := Default()
	cfg.EndpointSnitch = "property_file"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsNetworkTopologyWithoutReplicasPerDC(t *testing.T) {
	cfg := Default()
	cfg.ReplicationStrategy = "network_topology"
	require.Error(t, cfg.Validate())
}

func TestGossipAddressFormatsHostPort(t *testing.T) {
	cfg := Default()
	cfg.ListenAddress = "192.168.1.1"
	cfg.GossipPort = 9000
	require.Equal(t, "192.168.1.1:9000", cfg.GossipAddress())
}
