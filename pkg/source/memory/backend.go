package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/diskrescue/preview-cache/pkg/e"
)

// Backend serves ranged reads from an in-memory medium. SetContents
// swaps the medium out from under future reads, which makes it useful
// for exercising staleness behaviour.
type Backend struct {
	mu   sync.RWMutex
	data []byte
}

func New(data []byte) *Backend {
	return &Backend{data: data}
}

func (b *Backend) ReadRange(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	if offset < 0 || length < 0 {
		return nil, e.ErrInvalidRange
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	// Compared this way round so offset+length cannot overflow
	if offset > int64(len(b.data))-length {
		return nil, fmt.Errorf("%w: %d bytes at offset %d exceeds medium size %d", e.ErrInvalidRange, length, offset, len(b.data))
	}

	// Snapshot so later SetContents calls don't leak into open readers
	buf := make([]byte, length)
	copy(buf, b.data[offset:offset+length])

	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (b *Backend) SetContents(data []byte) {
	b.mu.Lock()
	b.data = data
	b.mu.Unlock()
}

func (b *Backend) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.data))
}
