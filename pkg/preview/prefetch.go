package preview

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/diskrescue/preview-cache/pkg/s"
	"github.com/diskrescue/preview-cache/pkg/source"
)

// Prefetch warms the cache for a batch of scan results, extracting up
// to PrefetchParallelism previews at a time. Fast-scan results are
// skipped. The first failure cancels the remaining work and is
// returned; files already cached cost nothing.
func (svc *Service) Prefetch(ctx context.Context, files []s.RecoverableFile, src source.Backend) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.parallel)

	for _, file := range files {
		if file.Source == s.FastScan {
			continue
		}
		file := file // per-iteration copy; required while go.mod targets go < 1.22
		g.Go(func() error {
			if _, err := svc.GeneratePreview(ctx, file, src); err != nil {
				log.Warn().Err(err).Str("id", file.ID).Msg("Prefetch failed")
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
