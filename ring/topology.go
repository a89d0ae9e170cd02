package ring

import "github.com/ringkeeper/gossipcore/endpoint"

// Location is the datacenter/rack pair a snitch resolves for an
// endpoint.
type Location struct {
	DC   string
	Rack string
}

// Topology indexes endpoints by datacenter and by (datacenter, rack),
// and the reverse endpoint -> location lookup (§3, topology.currentLocations).
type Topology struct {
	dcToEndpoints   map[string]map[endpoint.ID]struct{}
	rackToEndpoints map[string]map[string]map[endpoint.ID]struct{}
	location        map[endpoint.ID]Location
}

func newTopology() *Topology {
	return &Topology{
		dcToEndpoints:   make(map[string]map[endpoint.ID]struct{}),
		rackToEndpoints: make(map[string]map[string]map[endpoint.ID]struct{}),
		location:        make(map[endpoint.ID]Location),
	}
}

func (t *Topology) update(e endpoint.ID, loc Location) {
	t.remove(e)
	if t.dcToEndpoints[loc.DC] == nil {
		t.dcToEndpoints[loc.DC] = make(map[endpoint.ID]struct{})
	}
	t.dcToEndpoints[loc.DC][e] = struct{}{}

	if t.rackToEndpoints[loc.DC] == nil {
		t.rackToEndpoints[loc.DC] = make(map[string]map[endpoint.ID]struct{})
	}
	if t.rackToEndpoints[loc.DC][loc.Rack] == nil {
		t.rackToEndpoints[loc.DC][loc.Rack] = make(map[endpoint.ID]struct{})
	}
	t.rackToEndpoints[loc.DC][loc.Rack][e] = struct{}{}

	t.location[e] = loc
}

// remove drops e's topology entry entirely, per the invariant that
// removing an endpoint removes its topology entry (§3).
func (t *Topology) remove(e endpoint.ID) {
	loc, ok := t.location[e]
	if !ok {
		return
	}
	delete(t.dcToEndpoints[loc.DC], e)
	if len(t.dcToEndpoints[loc.DC]) == 0 {
		delete(t.dcToEndpoints, loc.DC)
	}
	if byRack := t.rackToEndpoints[loc.DC]; byRack != nil {
		delete(byRack[loc.Rack], e)
		if len(byRack[loc.Rack]) == 0 {
			delete(byRack, loc.Rack)
		}
		if len(byRack) == 0 {
			delete(t.rackToEndpoints, loc.DC)
		}
	}
	delete(t.location, e)
}

// Location returns e's known (DC, Rack), if any.
func (t *Topology) Location(e endpoint.ID) (Location, bool) {
	loc, ok := t.location[e]
	return loc, ok
}

// DatacenterEndpoints returns every endpoint known to live in dc.
func (t *Topology) DatacenterEndpoints(dc string) []endpoint.ID {
	out := make([]endpoint.ID, 0, len(t.dcToEndpoints[dc]))
	for e := range t.dcToEndpoints[dc] {
		out = append(out, e)
	}
	return out
}

// RackEndpoints returns every endpoint known to live in (dc, rack).
func (t *Topology) RackEndpoints(dc, rack string) []endpoint.ID {
	m := t.rackToEndpoints[dc]
	if m == nil {
		return nil
	}
	out := make([]endpoint.ID, 0, len(m[rack]))
	for e := range m[rack] {
		out = append(out, e)
	}
	return out
}

// Datacenters lists every known datacenter name.
func (t *Topology) Datacenters() []string {
	out := make([]string, 0, len(t.dcToEndpoints))
	for dc := range t.dcToEndpoints {
		out = append(out, dc)
	}
	return out
}

func (t *Topology) clone() *Topology {
	c := newTopology()
	for e, loc := range t.location {
		c.update(e, loc)
	}
	return c
}
