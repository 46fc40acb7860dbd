// Package discover resolves the CLI's file/directory argument into an
// ordered list of rule or data files: a single path is passed through
// unchanged, a directory is walked (non-recursively) and its entries are
// filtered by extension glob and sorted per the requested SortOrder.
// Reads retry transient I/O errors with bounded backoff before
// surfacing an IoError, the way a resilient file-reading layer commonly
// sits on top of go-retry.
package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// SortOrder controls how a directory's matched entries are ordered.
type SortOrder int

const (
	// SortAlphabetical orders entries by filename, ascending.
	SortAlphabetical SortOrder = iota
	// SortLastModified orders entries by modification time, descending
	// (most recently changed first).
	SortLastModified
	// SortFilesystem leaves entries in the order the filesystem/ReadDir
	// returned them.
	SortFilesystem
)

// Entries resolves path into an ordered list of file paths. If path is a
// regular file it is returned alone; if it is a directory, its entries
// matching pattern (a glob like "*.guard" or "*.{json,yaml}") are
// filtered and ordered by order.
func Entries(path, pattern string, order SortOrder) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, oops.Code("IO_ERROR").With("path", path).Wrapf(err, "stat")
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, oops.Code("IO_ERROR").With("pattern", pattern).Wrapf(err, "compiling glob")
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, oops.Code("IO_ERROR").With("path", path).Wrapf(err, "reading directory")
	}

	type entry struct {
		path    string
		modTime time.Time
	}
	var matched []entry
	for _, de := range dirEntries {
		if de.IsDir() || !g.Match(de.Name()) {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			return nil, oops.Code("IO_ERROR").With("path", de.Name()).Wrapf(err, "stat directory entry")
		}
		matched = append(matched, entry{path: filepath.Join(path, de.Name()), modTime: fi.ModTime()})
	}

	switch order {
	case SortAlphabetical:
		sort.Slice(matched, func(i, j int) bool { return matched[i].path < matched[j].path })
	case SortLastModified:
		sort.Slice(matched, func(i, j int) bool { return matched[i].modTime.After(matched[j].modTime) })
	case SortFilesystem:
		// already in os.ReadDir order
	}

	out := make([]string, len(matched))
	for i, e := range matched {
		out[i] = e.path
	}
	return out, nil
}

// ReadFile reads path, retrying transient EINTR/EAGAIN failures with
// bounded exponential backoff before giving up and surfacing an
// IoError.
func ReadFile(ctx context.Context, path string) ([]byte, error) {
	b := retry.NewExponential(20 * time.Millisecond)
	b = retry.WithMaxRetries(3, b)

	var data []byte
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		d, err := os.ReadFile(path)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		data = d
		return nil
	})
	if err != nil {
		return nil, oops.Code("IO_ERROR").With("path", path).Wrapf(err, "reading file")
	}
	return data, nil
}

func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR)
}
