// ════════════════════════════════════════════════════════════════════════════════════════════════
// SEGMENT REGISTRY
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Shared-Memory Channel Transport
// Component: Crash-Sweep Bookkeeping
//
// Description:
//   Optional sqlite-backed ledger of live shared segments. Owners that opt in
//   record each segment they create and remove the record on a clean close.
//   Sweep reaps the leftovers: any recorded segment whose owning process is
//   gone gets its backing file unlinked and its row deleted, so a crashed
//   owner does not strand files under /dev/shm until the next reboot.
//
//   Strictly off the hot path: the registry is touched only during segment
//   construction, teardown and explicit sweeps.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package registry

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shmchan/debug"
	"shmchan/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS segments (
	path       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	pid        INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);`

// Registry is a handle over the ledger database. Safe for concurrent use;
// database/sql serializes access to the single connection.
type Registry struct {
	db *sql.DB
}

// Open creates or opens the ledger at path and ensures the schema exists.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close releases the database handle.
func (r *Registry) Close() error { return r.db.Close() }

// Record notes a segment this process now owns. Satisfies shm.Recorder.
func (r *Registry) Record(name, path string) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO segments (path, name, pid, created_at) VALUES (?, ?, ?, ?)`,
		path, name, os.Getpid(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("registry: record %s: %w", path, err)
	}
	return nil
}

// Remove drops the record for a cleanly closed segment. Satisfies
// shm.Recorder.
func (r *Registry) Remove(path string) error {
	_, err := r.db.Exec(`DELETE FROM segments WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("registry: remove %s: %w", path, err)
	}
	return nil
}

// Sweep unlinks every recorded segment whose owning process is dead and
// deletes its row. Returns how many segments were reaped.
func (r *Registry) Sweep() (int, error) {
	rows, err := r.db.Query(`SELECT path, pid FROM segments`)
	if err != nil {
		return 0, fmt.Errorf("registry: sweep query: %w", err)
	}

	type victim struct {
		path string
		pid  int
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.path, &v.pid); err != nil {
			rows.Close()
			return 0, fmt.Errorf("registry: sweep scan: %w", err)
		}
		if !processAlive(v.pid) {
			victims = append(victims, v)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("registry: sweep rows: %w", err)
	}

	reaped := 0
	for _, v := range victims {
		if err := os.Remove(v.path); err != nil && !os.IsNotExist(err) {
			debug.DropError("SWEEP", err)
			continue
		}
		if _, err := r.db.Exec(`DELETE FROM segments WHERE path = ?`, v.path); err != nil {
			debug.DropError("SWEEP", err)
			continue
		}
		reaped++
	}
	if reaped > 0 {
		debug.DropMessage("SWEEP", utils.Itoa(reaped)+" stale segments reaped")
	}
	return reaped, nil
}
