// Package managementv1 mirrors proto/management/v1/management.proto,
// using the same hand-rolled JSON-over-gRPC approach as api/gossip/v1
// instead of a protoc-gen-go pass.
package managementv1

type Empty struct{}

type SeedList struct {
	Addresses []string `json:"addresses"`
}

type EndpointQuery struct {
	Address string `json:"address"`
}

type EndpointInfo struct {
	Address         string  `json:"address"`
	Alive           bool    `json:"alive"`
	Generation      int64   `json:"generation"`
	DowntimeSeconds float64 `json:"downtime_seconds"`
	Datacenter      string  `json:"datacenter"`
	Rack            string  `json:"rack"`
	ReleaseVersion  string  `json:"release_version"`
}

type EndpointList struct {
	Endpoints []EndpointInfo `json:"endpoints"`
}

type AssassinateRequest struct {
	Address   string `json:"address"`
	TokenHint string `json:"token_hint"`
}
