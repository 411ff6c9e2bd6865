package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/hindsight/core"
)

// Key prefixes for different data types
const (
	entryPrefix     = "jntent"
	entryDatePrefix = "jntentd"
	entryWordPrefix = "jntentw"
	entryIDSeq      = "jntentseq"
	embeddingPrefix = "jntemb"
)

// makeEntryKey generates a key for a journal entry by ID.
func makeEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entryPrefix, id))
}

// makeEntryDateKey generates a composite key for the date index.
// Format: prefix:timestamp:id
func makeEntryDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := entryDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialEntryDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialEntryDateKey(timestamp time.Time) []byte {
	prefix := entryDatePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeEntryWordKey generates a composite key for the keyword posting index.
// Format: prefix:tokenID:entryID where tokenID is the BLAKE2b hash of the token.
func makeEntryWordKey(tokenID, entryID core.ID) []byte {
	prefix := entryWordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(tokenID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(entryID))
	return buf
}

// makePartialEntryWordKey generates a partial key for posting list scans.
// Format: prefix:tokenID
func makePartialEntryWordKey(tokenID core.ID) []byte {
	prefix := entryWordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(tokenID))
	return buf
}

// makeEmbeddingKey generates a key for an embedding record by entry ID.
func makeEmbeddingKey(entryID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", embeddingPrefix, entryID))
}
