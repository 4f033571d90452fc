package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diskrescue/preview-cache/pkg/e"
)

type Backend struct {
	ra   io.ReaderAt
	size int64

	f *os.File // set when opened by path, released by Close
}

// Open opens a disk image or device node for ranged reads. The process
// must already hold whatever privileges the path requires.
func Open(path string) (*Backend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening medium: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stating medium: %w", err)
	}

	size := info.Size()
	if info.Mode()&os.ModeDevice != 0 {
		// Device nodes report a zero length, skip bounds checks
		size = -1
	}

	return &Backend{ra: f, size: size, f: f}, nil
}

// New wraps an already-opened handle. A negative size disables bounds
// checks; short ranges then surface as short reads.
func New(ra io.ReaderAt, size int64) *Backend {
	return &Backend{ra: ra, size: size}
}

func (b *Backend) ReadRange(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	if offset < 0 || length < 0 {
		return nil, e.ErrInvalidRange
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Compared this way round so offset+length cannot overflow
	if b.size >= 0 && offset > b.size-length {
		return nil, fmt.Errorf("%w: %d bytes at offset %d exceeds medium size %d", e.ErrInvalidRange, length, offset, b.size)
	}

	return io.NopCloser(io.NewSectionReader(b.ra, offset, length)), nil
}

func (b *Backend) Size() int64 {
	return b.size
}

func (b *Backend) Close() error {
	if b.f == nil {
		return nil
	}
	return b.f.Close()
}
