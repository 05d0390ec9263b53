package eixgo

import "fmt"

// Close releases the underlying file handle. It is idempotent and safe to
// call on a nil Database.
//
// Memory-backed Databases (opened from a compressed cache) hold no handle
// after OpenRead returns, so Close is a no-op for them. For file-backed
// Databases, readers still in flight observe I/O errors on their next read.
func (db *Database) Close() error {
	if db == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.f == nil {
		return nil
	}
	err := db.f.Close()
	db.f = nil
	if err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	return nil
}
