// Package registry is a durable store of DVB service triplets
// (original_network_id, transport_stream_id, service_id) and the network
// names harvested alongside them from parsed NIT sections.
//
// It replaces the teacher's JSON-file-backed internal/dvbdb with a small
// modernc.org/sqlite schema: the triplet/network-name data produced by this
// repository is genuinely relational (many services per transport stream,
// many transport streams per network), which justifies trading dvbdb's
// atomic-rename-JSON persistence for a real embedded database, following the
// sql.Open("sqlite", path) + blank modernc.org/sqlite import idiom already
// used by internal/plex/dvr.go for Plex's own library database.
package registry

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS services (
	onid         INTEGER NOT NULL,
	tsid         INTEGER NOT NULL,
	service_id   INTEGER NOT NULL,
	network_name TEXT NOT NULL DEFAULT '',
	first_seen   INTEGER NOT NULL,
	last_seen    INTEGER NOT NULL,
	PRIMARY KEY (onid, tsid, service_id)
)`

// Entry is one row of the service registry, keyed by the DVB triplet.
type Entry struct {
	OriginalNetworkID uint16
	TransportStreamID uint16
	ServiceID         uint16
	NetworkName       string
	FirstSeen         time.Time
	LastSeen          time.Time
}

// Registry is a handle to the sqlite-backed triplet store. Safe for
// concurrent use, as database/sql guarantees for *sql.DB.
type Registry struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and ensures
// its schema exists.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: create schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close releases the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Upsert inserts a new row for entry's triplet, or updates network_name and
// last_seen on an existing one while preserving first_seen.
func (r *Registry) Upsert(entry Entry) error {
	if entry.FirstSeen.IsZero() {
		entry.FirstSeen = entry.LastSeen
	}
	_, err := r.db.Exec(`
		INSERT INTO services (onid, tsid, service_id, network_name, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (onid, tsid, service_id) DO UPDATE SET
			network_name = excluded.network_name,
			last_seen    = excluded.last_seen`,
		entry.OriginalNetworkID, entry.TransportStreamID, entry.ServiceID,
		entry.NetworkName, entry.FirstSeen.Unix(), entry.LastSeen.Unix(),
	)
	if err != nil {
		return fmt.Errorf("registry: upsert %+v: %w", entry, err)
	}
	return nil
}

// LookupTriplet returns the stored Entry for (onid, tsid, serviceID), or
// found=false if no row matches. An absent triplet is not an error.
func (r *Registry) LookupTriplet(onid, tsid, serviceID uint16) (entry Entry, found bool, err error) {
	row := r.db.QueryRow(`
		SELECT onid, tsid, service_id, network_name, first_seen, last_seen
		FROM services WHERE onid = ? AND tsid = ? AND service_id = ?`,
		onid, tsid, serviceID)

	var firstSeen, lastSeen int64
	err = row.Scan(&entry.OriginalNetworkID, &entry.TransportStreamID, &entry.ServiceID,
		&entry.NetworkName, &firstSeen, &lastSeen)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("registry: lookup triplet: %w", err)
	}
	entry.FirstSeen = time.Unix(firstSeen, 0).UTC()
	entry.LastSeen = time.Unix(lastSeen, 0).UTC()
	return entry, true, nil
}

// UpsertFromNIT records one row per transport stream / service pair
// discovered while walking a parsed NIT section's TS loop, so the registry
// fills in from ordinary capture traffic without a separate harvest step.
// cmd/dvbsi-dump fills serviceIDs from the transport stream's
// service_list_descriptors. A non-empty networkName replaces the stored
// name; an empty one keeps the name already stored for an existing row.
func (r *Registry) UpsertFromNIT(onid, tsid uint16, serviceIDs []uint16, networkName string, seenAt time.Time) error {
	for _, sid := range serviceIDs {
		existing, found, err := r.LookupTriplet(onid, tsid, sid)
		if err != nil {
			return err
		}
		name := networkName
		if name == "" && found {
			name = existing.NetworkName
		}
		if err := r.Upsert(Entry{
			OriginalNetworkID: onid,
			TransportStreamID: tsid,
			ServiceID:         sid,
			NetworkName:       name,
			FirstSeen:         existing.FirstSeen,
			LastSeen:          seenAt,
		}); err != nil {
			return err
		}
	}
	return nil
}
