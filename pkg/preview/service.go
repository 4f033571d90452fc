// Package preview extracts previewable copies of recoverable files from
// a scanned medium and memoizes their locations. Extraction only ever
// happens for deep-scan results; fast-scan results still reference live
// files and need no artifact. A cached location is trusted for the
// lifetime of the service, the medium is never re-read to freshen it.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/diskrescue/preview-cache/pkg/artifact"
	"github.com/diskrescue/preview-cache/pkg/e"
	"github.com/diskrescue/preview-cache/pkg/metrics"
	"github.com/diskrescue/preview-cache/pkg/s"
	"github.com/diskrescue/preview-cache/pkg/source"
)

const DefaultPrefetchParallelism = 4

type Config struct {
	Store *artifact.Store

	// PrefetchParallelism bounds concurrent extractions during Prefetch,
	// defaulting to DefaultPrefetchParallelism
	PrefetchParallelism int
}

// flight is a single in-progress extraction. Waiters block on done and
// then share path/err with the caller that started it.
type flight struct {
	done chan struct{}
	path string
	err  error
}

type Service struct {
	store    *artifact.Store
	parallel int

	mu      sync.Mutex
	cache   map[string]string
	flights map[string]*flight
	gen     uint64
}

func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("artifact store is required")
	}

	parallel := cfg.PrefetchParallelism
	if parallel <= 0 {
		parallel = DefaultPrefetchParallelism
	}

	service := Service{
		store:    cfg.Store,
		parallel: parallel,
		cache:    make(map[string]string),
		flights:  make(map[string]*flight),
	}
	return &service, nil
}

// GeneratePreview returns the location of a previewable artifact for
// file, extracting one from src if needed. The empty string with a nil
// error means no artifact is required: fast-scan results are previewed
// straight from the live file system. Repeated calls for the same
// file.ID return the same location without touching src again.
func (svc *Service) GeneratePreview(ctx context.Context, file s.RecoverableFile, src source.Backend) (string, error) {
	switch file.Source {
	case s.FastScan:
		metrics.RecordRequest(metrics.OutcomeSkipped)
		return "", nil
	case s.DeepScan:
		return svc.preview(ctx, file, src)
	default:
		metrics.RecordRequest(metrics.OutcomeRejected)
		return "", fmt.Errorf("%w: %q", e.ErrUnknownScanSource, file.Source)
	}
}

func (svc *Service) preview(ctx context.Context, file s.RecoverableFile, src source.Backend) (string, error) {
	svc.mu.Lock()

	if path, ok := svc.cache[file.ID]; ok {
		svc.mu.Unlock()
		metrics.RecordRequest(metrics.OutcomeHit)
		log.Debug().Str("id", file.ID).Str("path", path).Msg("Preview cache hit")
		return path, nil
	}

	if fl, ok := svc.flights[file.ID]; ok {
		svc.mu.Unlock()
		metrics.RecordRequest(metrics.OutcomeCoalesced)
		select {
		case <-fl.done:
			return fl.path, fl.err
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", e.ErrReadFailed, ctx.Err())
		}
	}

	fl := &flight{done: make(chan struct{})}
	svc.flights[file.ID] = fl
	gen := svc.gen
	svc.mu.Unlock()

	fl.path, fl.err = svc.extract(ctx, file, src)
	close(fl.done)

	svc.mu.Lock()
	if svc.flights[file.ID] == fl {
		delete(svc.flights, file.ID)
	}
	if fl.err == nil {
		if svc.gen == gen {
			svc.cache[file.ID] = fl.path
			metrics.SetCacheEntries(len(svc.cache))
		} else {
			// Cache was cleared mid-extraction; hand the artifact to our
			// waiters but leave it uncached so the next request re-reads
			log.Debug().Str("id", file.ID).Str("path", fl.path).Msg("Cache cleared during extraction, artifact left uncached")
		}
	}
	svc.mu.Unlock()

	return fl.path, fl.err
}

func (svc *Service) extract(ctx context.Context, file s.RecoverableFile, src source.Backend) (string, error) {
	start := time.Now()

	data, err := readRange(ctx, file, src)
	if err != nil {
		metrics.RecordRequest(metrics.OutcomeReadError)
		log.Error().Err(err).Str("id", file.ID).Int64("offset", file.OffsetOnDisk).Int64("size", file.SizeInBytes).Msg("Data source read failed")
		return "", fmt.Errorf("%w: %w", e.ErrReadFailed, err)
	}

	art, err := svc.store.Materialize(data)
	if err != nil {
		metrics.RecordRequest(metrics.OutcomeWriteError)
		log.Error().Err(err).Str("id", file.ID).Msg("Artifact materialization failed")
		return "", fmt.Errorf("%w: %w", e.ErrWriteFailed, err)
	}

	elapsed := time.Since(start)
	metrics.RecordRequest(metrics.OutcomeMiss)
	metrics.RecordExtraction(art.Size, elapsed)
	log.Debug().Str("id", file.ID).Str("path", art.Path).Str("checksum", art.Checksum).Dur("duration", elapsed).Msg("Extracted preview artifact")

	return art.Path, nil
}

// readRange pulls exactly file.SizeInBytes bytes at file.OffsetOnDisk.
// Anything short of that is a read failure, the descriptor is trusted
// over whatever the medium happens to hold.
func readRange(ctx context.Context, file s.RecoverableFile, src source.Backend) ([]byte, error) {
	rc, err := src.ReadRange(ctx, file.OffsetOnDisk, file.SizeInBytes)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, file.SizeInBytes)
	if _, err = io.ReadFull(rc, buf); err != nil {
		return nil, fmt.Errorf("reading %d bytes at offset %d: %w", file.SizeInBytes, file.OffsetOnDisk, err)
	}
	return buf, nil
}

// ClearCache forgets every cached location and then removes the
// forgotten artifacts best-effort. In-flight extractions are detached:
// they resolve for their own waiters but do not repopulate the cache.
func (svc *Service) ClearCache() {
	svc.mu.Lock()
	cleared := svc.cache
	svc.cache = make(map[string]string)
	svc.flights = make(map[string]*flight)
	svc.gen++
	// Gauge updates stay under the mutex so a racing commit cannot be
	// overwritten by a stale zero
	metrics.SetCacheEntries(0)
	svc.mu.Unlock()

	metrics.RecordCacheClear()
	log.Info().Int("entries", len(cleared)).Msg("Preview cache cleared")

	// Open handles keep reading fine after removal, so this does not
	// race in-flight consumers of the old locations
	for id, path := range cleared {
		if err := svc.store.Remove(path); err != nil {
			log.Warn().Err(err).Str("id", id).Str("path", path).Msg("Failed to remove cleared artifact")
		}
	}
}

// CachedPath reports the stored location for id without side effects.
func (svc *Service) CachedPath(id string) (string, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	path, ok := svc.cache[id]
	return path, ok
}

// Len returns the number of cached locations.
func (svc *Service) Len() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.cache)
}
