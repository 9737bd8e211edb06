package ports

import "pkgsmith/internal/types"

// DatabasePort is the durable record of what is installed under one
// prefix. All writes use atomic replace so an interruption mid-write
// never corrupts the persisted record set.
type DatabasePort interface {
	// Record upserts, replacing any existing record for the same name.
	Record(record types.InstalledRecord) error

	// Query returns the record for a package name.
	Query(name string) (types.InstalledRecord, error)

	// List returns all records sorted by name.
	List() ([]types.InstalledRecord, error)

	// Remove deletes the record for a package name.
	Remove(name string) error
}
