// Package archive bundles named blobs into a single zip stream.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDuplicateName = errors.New("duplicate archive entry")
	ErrFinalized     = errors.New("archive already finalized")
)

// chunk is how many bytes are compressed between progress reports.
const chunk = 64 << 10

// ProgressFunc receives the fraction of entry bytes compressed so far,
// non-decreasing, ending at 1.
type ProgressFunc func(fraction float64)

type entry struct {
	name string
	data []byte
}

// Zip collects entries in insertion order and compresses them on Finalize.
type Zip struct {
	entries  []entry
	names    map[string]bool
	total    int
	modified time.Time
	done     bool
}

// New returns an empty archive. Entries carry a fixed timestamp so equal
// inputs produce equal archives.
func New() *Zip {
	return &Zip{
		names:    make(map[string]bool),
		modified: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Insert adds a named blob. data is retained, not copied.
func (z *Zip) Insert(name string, data []byte) error {
	if z.done {
		return ErrFinalized
	}
	if z.names[name] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	z.names[name] = true
	z.entries = append(z.entries, entry{name: name, data: data})
	z.total += len(data)
	return nil
}

// Len is the number of inserted entries.
func (z *Zip) Len() int { return len(z.entries) }

// Names returns entry names in insertion order.
func (z *Zip) Names() []string {
	names := make([]string, len(z.entries))
	for i, e := range z.entries {
		names[i] = e.name
	}
	return names
}

// Finalize compresses all entries and returns the archive bytes.
func (z *Zip) Finalize(progress ProgressFunc) ([]byte, error) {
	if z.done {
		return nil, ErrFinalized
	}
	z.done = true
	if progress == nil {
		progress = func(float64) {}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	written := 0
	for _, e := range z.entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: z.modified,
		})
		if err != nil {
			return nil, fmt.Errorf("creating entry %s: %w", e.name, err)
		}
		for off := 0; off < len(e.data); off += chunk {
			end := min(off+chunk, len(e.data))
			if _, err := w.Write(e.data[off:end]); err != nil {
				return nil, fmt.Errorf("writing entry %s: %w", e.name, err)
			}
			written += end - off
			progress(float64(written) / float64(z.total))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	progress(1)
	return buf.Bytes(), nil
}
