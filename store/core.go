/*
File Name:  core.go
Package:    store

Core is the persisted record of one client: its address hash (the
primary key), its last-seen identity and activity status. InitDB opens (or
creates) the backing SQLite database and migrates the Core table. This is
a schema-only contract, not a live persistence layer: the tracer worker
that would read and write Core rows is reserved (see workers.Trace) and
never issues these statements.
*/

package store

import (
	"time"

	"github.com/Azoozya/toktok/wire"
	"github.com/cespare/xxhash/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Core is the gorm model backing the Core table: one row per client ever
// seen, keyed by the xxhash of its "ip:port" address string.
type Core struct {
	Addr         uint64 `gorm:"primaryKey"`
	OpenSSHID    []byte
	OpenSSHPub   []byte
	Active       bool
	LastActivity time.Time
}

// AddrHash computes the Core primary key for client.
func AddrHash(client wire.Host) uint64 {
	return xxhash.Sum64String(client.String())
}

// NewCore builds an unsaved Core row for client.
func NewCore(client wire.Host) Core {
	return Core{Addr: AddrHash(client)}
}

// InitDB opens filename as a SQLite database and migrates the Core table,
// creating the file if it does not already exist.
func InitDB(filename string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Core{}); err != nil {
		return nil, err
	}
	return db, nil
}
