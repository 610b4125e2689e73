package sift

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ChunkID derives the stable identifier for one chunk. It is a pure
// function of its inputs: equal inputs always yield an equal id, which
// is what lets upserting sinks deduplicate re-ingested documents.
// Format: <documentID>.<fieldPath>.<chunkIndex>, e.g. "d1.title.0".
func ChunkID(documentID, fieldPath string, chunkIndex int) string {
	return documentID + "." + fieldPath + "." + strconv.Itoa(chunkIndex)
}

// NewDocumentID generates a globally unique, time-sortable UUIDv7
// (RFC 9562) for callers ingesting documents without an intrinsic id.
// Unlike ChunkID this is random: two calls never match, so assign it
// once and reuse it for re-ingestion.
func NewDocumentID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NowUnix returns current time as Unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}
