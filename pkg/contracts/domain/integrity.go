package domain

import (
	"time"
)

// HashAlgorithm identifies the digest used for file integrity records.
type HashAlgorithm string

const (
	HashSHA256  HashAlgorithm = "sha256"
	HashBLAKE2b HashAlgorithm = "blake2b"
)

// IntegrityRecord proves that an input file is the exact bytes previously
// produced. Immutable once computed.
type IntegrityRecord struct {
	Path      string        `json:"path"`
	SizeBytes int64         `json:"size_bytes"`
	ModTime   time.Time     `json:"mtime"`
	Algorithm HashAlgorithm `json:"algorithm"`
	Hash      string        `json:"hash"`
}

// Equivalent reports whether two records describe identical content.
// Hash and size must match exactly; path and mtime are provenance only.
func (r IntegrityRecord) Equivalent(other IntegrityRecord) bool {
	return r.Algorithm == other.Algorithm && r.Hash == other.Hash && r.SizeBytes == other.SizeBytes
}
