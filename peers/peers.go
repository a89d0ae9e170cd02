// Package peers persists what the local node knows about its cluster
// peers across restarts: host id, addresses, and the last-known
// application state fields worth remembering before a full gossip
// bootstrap runs again. It is intentionally tiny: the gossip engine is
// the single source of truth for live state, and this table keeps a
// copy that LoadPeers reads back. No code in this module loads that
// copy into the gossip engine when a node restarts.
package peers

import (
	"database/sql"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ringkeeper/gossipcore/endpoint"
)

// Record is one row of the peers table: everything needed to
// reconstruct an endpoint.ID plus the handful of application-state
// fields worth remembering across a restart.
type Record struct {
	Endpoint       endpoint.ID
	Datacenter     string
	Rack           string
	ReleaseVersion string
	Tokens         []string
	UpdatedAt      time.Time
}

// Store is the persisted peers table (SystemKeyspace's peers/local
// accessors in the original).
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite-backed peers store at
// path. Pass ":memory:" for an ephemeral store, primarily for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("peers: opening %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS local (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	host_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS peers (
	host_id TEXT PRIMARY KEY,
	listen TEXT NOT NULL,
	broadcast TEXT NOT NULL,
	native TEXT NOT NULL,
	broadcast_native TEXT NOT NULL,
	datacenter TEXT NOT NULL DEFAULT '',
	rack TEXT NOT NULL DEFAULT '',
	release_version TEXT NOT NULL DEFAULT '',
	tokens TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
);`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("peers: migrating schema: %w", err)
	}
	return nil
}

// GetLocalHostID returns the local node's persisted host id,
// generating and storing a fresh one on first run.
func (s *Store) GetLocalHostID() (uuid.UUID, error) {
	var raw string
	err := s.db.QueryRow(`SELECT host_id FROM local WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		id := uuid.New()
		if _, err := s.db.Exec(`INSERT INTO local (id, host_id) VALUES (1, ?)`, id.String()); err != nil {
			return uuid.Nil, fmt.Errorf("peers: persisting local host id: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("peers: reading local host id: %w", err)
	}
	return uuid.Parse(raw)
}

// LoadPeers returns every persisted peer record. Nothing in this module
// passes the records to the gossip engine.
func (s *Store) LoadPeers() ([]Record, error) {
	rows, err := s.db.Query(`SELECT host_id, listen, broadcast, native, broadcast_native, datacenter, rack, release_version, tokens, updated_at FROM peers`)
	if err != nil {
		return nil, fmt.Errorf("peers: loading: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var hostID, listen, broadcast, native, broadcastNative, dc, rack, release, tokens string
		var updatedAt int64
		if err := rows.Scan(&hostID, &listen, &broadcast, &native, &broadcastNative, &dc, &rack, &release, &tokens, &updatedAt); err != nil {
			return nil, fmt.Errorf("peers: scanning row: %w", err)
		}
		rec, err := rowToRecord(hostID, listen, broadcast, native, broadcastNative, dc, rack, release, tokens, updatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdatePeer upserts rec, called whenever the gossip engine's
// subscriber layer observes a durability-worthy change (DC/rack
// assignment, release version, tokens).
func (s *Store) UpdatePeer(rec Record) error {
	_, err := s.db.Exec(`
INSERT INTO peers (host_id, listen, broadcast, native, broadcast_native, datacenter, rack, release_version, tokens, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(host_id) DO UPDATE SET
	listen = excluded.listen,
	broadcast = excluded.broadcast,
	native = excluded.native,
	broadcast_native = excluded.broadcast_native,
	datacenter = excluded.datacenter,
	rack = excluded.rack,
	release_version = excluded.release_version,
	tokens = excluded.tokens,
	updated_at = excluded.updated_at`,
		rec.Endpoint.HostID.String(),
		addrPortString(rec.Endpoint.Listen),
		addrPortString(rec.Endpoint.Broadcast),
		addrPortString(rec.Endpoint.Native),
		addrPortString(rec.Endpoint.BroadcastNative),
		rec.Datacenter, rec.Rack, rec.ReleaseVersion,
		joinTokens(rec.Tokens),
		rec.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("peers: upserting %s: %w", rec.Endpoint.HostID, err)
	}
	return nil
}

// RemovePeer deletes the persisted record for hostID, called once an
// endpoint is quarantined out of the cluster for good.
func (s *Store) RemovePeer(hostID uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM peers WHERE host_id = ?`, hostID.String())
	if err != nil {
		return fmt.Errorf("peers: removing %s: %w", hostID, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func addrPortString(ap netip.AddrPort) string {
	if !ap.IsValid() {
		return ""
	}
	return ap.String()
}

func joinTokens(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

func splitTokens(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

func rowToRecord(hostID, listen, broadcast, native, broadcastNative, dc, rack, release, tokens string, updatedAt int64) (Record, error) {
	id, err := uuid.Parse(hostID)
	if err != nil {
		return Record{}, fmt.Errorf("peers: parsing host id %q: %w", hostID, err)
	}
	l, err := parseAddrPort(listen)
	if err != nil {
		return Record{}, err
	}
	b, err := parseAddrPort(broadcast)
	if err != nil {
		return Record{}, err
	}
	n, err := parseAddrPort(native)
	if err != nil {
		return Record{}, err
	}
	bn, err := parseAddrPort(broadcastNative)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Endpoint:       endpoint.New(id, l, b, n, bn),
		Datacenter:     dc,
		Rack:           rack,
		ReleaseVersion: release,
		Tokens:         splitTokens(tokens),
		UpdatedAt:      time.Unix(updatedAt, 0),
	}, nil
}

func parseAddrPort(s string) (netip.AddrPort, error) {
	if s == "" {
		return netip.AddrPort{}, nil
	}
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("peers: parsing address %q: %w", s, err)
	}
	return ap, nil
}
