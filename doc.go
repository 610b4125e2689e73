// Package sift extracts text fields from nested documents, splits them
// into overlapping chunks, and hands the resulting records to a
// pluggable storage sink for embedding-based retrieval.
//
// The core is three pure building blocks — field-path resolution,
// separator-based chunking, and deterministic chunk identification —
// orchestrated by a Pipeline. Re-running ingestion over an unchanged
// document reproduces byte-identical records with identical ids, so any
// sink that upserts by id gets deduplication for free.
//
// Storage backends live under sink/, embedding providers under embed/.
// The pipeline itself performs no I/O beyond the embedder and sink
// boundaries.
package sift
