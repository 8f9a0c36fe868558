package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kunal-geeks/chunkroot/internal/digest"
	"github.com/kunal-geeks/chunkroot/internal/merkle"
	"github.com/kunal-geeks/chunkroot/internal/report"
)

// Operations a FileError can originate from.
const (
	OpStat  = "stat"
	OpRead  = "read"
	OpHash  = "hash"
	OpWrite = "write"
)

// ErrNotRegular is returned for paths that are directories, devices or
// other non-regular files.
var ErrNotRegular = errors.New("not a regular file")

// FileError reports why one file in a batch produced no record.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result is the root of one file plus the record that gets reported for it.
type Result struct {
	Record report.Record
	Root   digest.Digest
	Leaves int
}

// ComputeFile reads the whole file at path, splits it into chunkSize chunks
// and reduces their digests to a Merkle root. The elapsed time covers
// everything from the stat to the finished root.
//
// Empty files have no root; they fail with an error wrapping
// merkle.ErrEmptyInput.
func ComputeFile(path string, chunkSize int, alg digest.Algorithm) (Result, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, &FileError{Path: path, Op: OpStat, Err: err}
	}
	if !info.Mode().IsRegular() {
		return Result{}, &FileError{Path: path, Op: OpStat, Err: ErrNotRegular}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &FileError{Path: path, Op: OpRead, Err: err}
	}

	root, leaves, err := merkle.Root(data, chunkSize, alg)
	if err != nil {
		return Result{}, &FileError{Path: path, Op: OpHash, Err: err}
	}

	elapsed := time.Since(start)

	return Result{
		Record: report.Record{
			FileName:      filepath.Base(path),
			FileSizeBytes: info.Size(),
			MerkleRootHex: root.String(),
			ElapsedMs:     float64(elapsed) / float64(time.Millisecond),
		},
		Root:   root,
		Leaves: leaves,
	}, nil
}

// ListFiles returns the files directly inside dir, sorted by name.
// Subdirectories and other non-regular entries are skipped. Entries whose
// target cannot be inspected (e.g. dangling symlinks) are kept so they
// surface as per-file failures instead of aborting the listing.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ListFiles: readdir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Follow symlinks like a plain stat would.
		info, err := os.Stat(path)
		if err != nil {
			paths = append(paths, path)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}

	return paths, nil
}
