package streaming

import "github.com/ringkeeper/gossipcore/endpoint"

// SourceFilter is a predicate a streaming candidate must satisfy.
// Filters compose by AND (§4.6, "Source filters").
type SourceFilter interface {
	Accept(e endpoint.ID) bool
	Name() string
}

// AcceptAll applies every filter in order, short-circuiting on the
// first rejection.
func AcceptAll(filters []SourceFilter, e endpoint.ID) bool {
	for _, f := range filters {
		if !f.Accept(e) {
			return false
		}
	}
	return true
}

// FailureDetectorSourceFilter admits only endpoints the failure
// detector currently considers alive.
type FailureDetectorSourceFilter struct {
	IsAlive func(e endpoint.ID) bool
}

func (f FailureDetectorSourceFilter) Accept(e endpoint.ID) bool { return f.IsAlive(e) }
func (FailureDetectorSourceFilter) Name() string                { return "FailureDetectorSourceFilter" }

// SingleDatacenterFilter admits only endpoints resolved to dc.
type SingleDatacenterFilter struct {
	DC         string
	Datacenter func(e endpoint.ID) string
}

func (f SingleDatacenterFilter) Accept(e endpoint.ID) bool { return f.Datacenter(e) == f.DC }
func (SingleDatacenterFilter) Name() string                 { return "SingleDatacenterFilter" }

// ExcludeLocalNodeFilter rejects the local endpoint itself.
type ExcludeLocalNodeFilter struct {
	Local endpoint.ID
}

func (f ExcludeLocalNodeFilter) Accept(e endpoint.ID) bool { return !f.Local.Equal(e) }
func (ExcludeLocalNodeFilter) Name() string                 { return "ExcludeLocalNodeFilter" }

// WhitelistedSourcesFilter admits only endpoints present in Allowed.
type WhitelistedSourcesFilter struct {
	Allowed map[endpoint.ID]struct{}
}

func (f WhitelistedSourcesFilter) Accept(e endpoint.ID) bool {
	_, ok := f.Allowed[e]
	return ok
}
func (WhitelistedSourcesFilter) Name() string { return "WhitelistedSourcesFilter" }
