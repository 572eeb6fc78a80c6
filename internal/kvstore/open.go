package kvstore

import "log/slog"

// Open returns the SQLite store at dbPath, transparently falling back to an
// in-memory store when the durable medium cannot be opened. Callers get a
// working store either way; the fallback only costs persistence across
// restarts.
func Open(dbPath string, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	if dbPath == "" {
		logger.Warn("No database path configured, using in-memory store")
		return NewMemoryStore()
	}
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn("Durable store unavailable, falling back to memory",
			"path", dbPath, "error", err)
		return NewMemoryStore()
	}
	return store
}
