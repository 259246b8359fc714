package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	vectorPrefix   = "vec:"
	runPrefix      = "run:"
	runIndexPrefix = "runid:"
)

// makeVectorKey generates a key for a cached vector.
func makeVectorKey(key string) []byte {
	return []byte(vectorPrefix + key)
}

// makeRunKey generates a composite key ordered by start time.
// Format: prefix:timestamp:id
func makeRunKey(startedAt time.Time, id string) []byte {
	buf := make([]byte, len(runPrefix)+8+len(id))
	offset := copy(buf, runPrefix)
	// BigEndian so lexicographic order is chronological
	binary.BigEndian.PutUint64(buf[offset:], uint64(startedAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makeRunIndexKey maps a run ID to its primary key.
func makeRunIndexKey(id string) []byte {
	return []byte(runIndexPrefix + id)
}
