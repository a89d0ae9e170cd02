package snitch

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ringkeeper/gossipcore/endpoint"
)

// topologyFile is the on-disk shape of a topology override file, one
// entry per known broadcast address, mirroring Cassandra's
// cassandra-topology.properties split from the main config.
type topologyFile struct {
	Default struct {
		Datacenter string `toml:"datacenter"`
		Rack       string `toml:"rack"`
	} `toml:"default"`
	Endpoints map[string]struct {
		Datacenter string `toml:"datacenter"`
		Rack       string `toml:"rack"`
	} `toml:"endpoints"`
}

// PropertyFileSnitch resolves DC/rack from a static table keyed by
// broadcast address, loaded once from a TOML topology file. Endpoints
// absent from the table fall back to the configured default
// datacenter/rack, matching the reference snitch's behavior for
// not-yet-classified peers.
type PropertyFileSnitch struct {
	defaultDC   string
	defaultRack string
	locations   map[string]Location
}

// Location is the (datacenter, rack) pair a property-file entry names.
type Location struct {
	Datacenter string
	Rack       string
}

// LoadPropertyFileSnitch reads path as a TOML topology override file.
func LoadPropertyFileSnitch(path string) (*PropertyFileSnitch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snitch: reading topology file %s: %w", path, err)
	}
	var tf topologyFile
	if err := toml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("snitch: parsing topology file %s: %w", path, err)
	}
	if tf.Default.Datacenter == "" {
		tf.Default.Datacenter = "datacenter1"
	}
	if tf.Default.Rack == "" {
		tf.Default.Rack = "rack1"
	}

	locations := make(map[string]Location, len(tf.Endpoints))
	for addr, loc := range tf.Endpoints {
		locations[addr] = Location{Datacenter: loc.Datacenter, Rack: loc.Rack}
	}
	return &PropertyFileSnitch{
		defaultDC:   tf.Default.Datacenter,
		defaultRack: tf.Default.Rack,
		locations:   locations,
	}, nil
}

// NewPropertyFileSnitch builds a snitch directly from an address->location
// table, bypassing the TOML file, for tests and programmatic setup.
func NewPropertyFileSnitch(defaultDC, defaultRack string, locations map[string]Location) *PropertyFileSnitch {
	if locations == nil {
		locations = make(map[string]Location)
	}
	return &PropertyFileSnitch{defaultDC: defaultDC, defaultRack: defaultRack, locations: locations}
}

func (s *PropertyFileSnitch) lookup(e endpoint.ID) Location {
	if loc, ok := s.locations[e.Broadcast.Addr().String()]; ok {
		return loc
	}
	return Location{Datacenter: s.defaultDC, Rack: s.defaultRack}
}

func (s *PropertyFileSnitch) Datacenter(e endpoint.ID) string { return s.lookup(e).Datacenter }

func (s *PropertyFileSnitch) Rack(e endpoint.ID) string { return s.lookup(e).Rack }

// CompareEndpoints ranks a closer than b when a shares target's rack and
// b does not, then when a shares target's datacenter and b does not;
// otherwise they are considered equidistant, matching the reference
// snitch's three-tier (rack, DC, other) proximity order.
func (s *PropertyFileSnitch) CompareEndpoints(target, a, b endpoint.ID) int {
	tLoc := s.lookup(target)
	aLoc, bLoc := s.lookup(a), s.lookup(b)

	aLocal := aLoc == tLoc
	bLocal := bLoc == tLoc
	if aLocal && !bLocal {
		return -1
	}
	if bLocal && !aLocal {
		return 1
	}

	aSameDC := aLoc.Datacenter == tLoc.Datacenter
	bSameDC := bLoc.Datacenter == tLoc.Datacenter
	if aSameDC && !bSameDC {
		return -1
	}
	if bSameDC && !aSameDC {
		return 1
	}
	return 0
}

func (s *PropertyFileSnitch) SortedByProximity(self endpoint.ID, candidates []endpoint.ID) []endpoint.ID {
	return SortByProximity(s, self, candidates)
}

func (s *PropertyFileSnitch) GossiperStarting() {}

// IsWorthMergingForRangeQuery is conservative: it reports true only when
// l1 and l2 are both non-empty and share at least one endpoint, so that
// merged is shorter than the two lists together; disjoint lists are not
// merged.
func (s *PropertyFileSnitch) IsWorthMergingForRangeQuery(merged, l1, l2 []endpoint.ID) bool {
	if len(l1) == 0 || len(l2) == 0 {
		return false
	}
	return len(merged) < len(l1)+len(l2)
}
