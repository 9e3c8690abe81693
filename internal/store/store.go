package store

import "github.com/loganszeto/recordkv/internal/record"

// Store is the shared key/value mapping reached by every connection.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns an independent copy of the record under key.
	Get(key string) (record.Record, bool)
	// Set binds value to key, replacing any previous record.
	Set(key string, value record.Record)
	Len() int
}
