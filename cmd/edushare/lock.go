package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	"github.com/phrazzld/edushare-api/internal/config"
)

// errAlreadyRunning is returned when another process holds the worker lock.
var errAlreadyRunning = errors.New("another edushare server already owns this database")

// lockPath returns the lock file guarding a SQLite database, or "" for
// drivers that coordinate on their own.
func lockPath(cfg config.DatabaseConfig) string {
	if cfg.Driver != "sqlite" {
		return ""
	}
	path, _, _ := strings.Cut(cfg.URL, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return ""
	}
	return path + ".lock"
}

// acquireWorkerLock takes the lock for cfg so that one process owns the
// worker pool of a SQLite file. The returned func releases it.
func acquireWorkerLock(cfg config.DatabaseConfig) (func() error, error) {
	path := lockPath(cfg)
	if path == "" {
		return func() error { return nil }, nil
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, errAlreadyRunning
	}
	return lock.Unlock, nil
}
