// Package integrity proves that an input artifact is the exact bytes
// previously produced: size, modification time and a streaming content hash.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"

	"golang.org/x/crypto/blake2b"

	apperrors "meteoval/internal/errors"
	"meteoval/pkg/contracts/domain"
)

// chunkSize is the streaming read size; files are never loaded wholesale so
// inputs larger than available memory still hash correctly.
const chunkSize = 1 << 20

// Verifier computes IntegrityRecords for input files.
type Verifier struct {
	logger    *slog.Logger
	algorithm domain.HashAlgorithm
}

// NewVerifier creates a verifier using the given digest algorithm.
func NewVerifier(logger *slog.Logger, algorithm domain.HashAlgorithm) (*Verifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch algorithm {
	case "", domain.HashSHA256:
		algorithm = domain.HashSHA256
	case domain.HashBLAKE2b:
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported hash algorithm %q", algorithm), nil)
	}
	return &Verifier{logger: logger, algorithm: algorithm}, nil
}

// Verify produces the IntegrityRecord for path. Read-only; fails with a
// NOT_FOUND error when the path does not exist.
func (v *Verifier) Verify(path string) (domain.IntegrityRecord, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return domain.IntegrityRecord{}, apperrors.NewNotFoundError(path)
	}
	if err != nil {
		return domain.IntegrityRecord{}, apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return domain.IntegrityRecord{}, apperrors.NewStorageError(fmt.Sprintf("%s is a directory, not a file", path), nil)
	}

	digest, err := v.hashFile(path)
	if err != nil {
		return domain.IntegrityRecord{}, err
	}

	record := domain.IntegrityRecord{
		Path:      path,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
		Algorithm: v.algorithm,
		Hash:      digest,
	}

	v.logger.Info("verified file integrity",
		slog.String("path", path),
		slog.Int64("size_bytes", record.SizeBytes),
		slog.String("algorithm", string(record.Algorithm)),
		slog.String("hash", record.Hash))

	return record, nil
}

// hashFile streams the file through the configured digest in fixed chunks.
func (v *Verifier) hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	var h hash.Hash
	switch v.algorithm {
	case domain.HashBLAKE2b:
		h, err = blake2b.New256(nil)
		if err != nil {
			return "", apperrors.NewConfigError("failed to initialize blake2b", err)
		}
	default:
		h = sha256.New()
	}

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// ResolveFirst returns the first existing path from candidates, logging
// every probe so provenance is traceable. Falls back to a NOT_FOUND error
// naming all candidates when none exist.
func (v *Verifier) ResolveFirst(candidates []string) (string, error) {
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			v.logger.Info("resolved input candidate",
				slog.String("path", candidate))
			return candidate, nil
		}
		v.logger.Debug("input candidate absent",
			slog.String("path", candidate))
	}
	return "", apperrors.NewNotFoundError(fmt.Sprintf("none of %d candidate inputs", len(candidates))).
		WithContext("candidates", candidates)
}
