//go:build !cgo_sqlite

package main

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const sqliteDriver = "sqlite"
