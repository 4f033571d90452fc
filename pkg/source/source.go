// Package source defines the ranged-read capability the preview service
// uses to pull bytes off a scanned medium. Opening device nodes with the
// right privileges is the caller's problem; backends only read.
package source

import (
	"context"
	"errors"
	"io"

	awss3 "github.com/diskrescue/preview-cache/pkg/source/aws-s3"
	"github.com/diskrescue/preview-cache/pkg/source/file"
)

//go:generate mockgen -destination mock_source/source_mock.go -package mock_source github.com/diskrescue/preview-cache/pkg/source Backend

// Backend reads byte ranges from a recovery medium. ReadRange returns a
// reader over [offset, offset+length); the reader yields at most length
// bytes and consumers are expected to treat anything less as a failed
// read. Implementations must be safe for concurrent use.
type Backend interface {
	ReadRange(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

func GetSourceBackend(backend, connectionString string) (Backend, error) {
	switch backend {
	case "file":
		return file.Open(connectionString)
	case "s3":
		b, err := awss3.New(connectionString)
		if err != nil {
			return nil, err
		}
		if err = b.Setup(); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.New("invalid source backend")
	}
}
