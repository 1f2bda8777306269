package geocoder

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Warmer resolves a batch of addresses ahead of time so dashboard renders
// rarely wait on the provider. Failures are logged and skipped; a warmup
// never fails the service.
type Warmer struct {
	resolver    *Resolver
	concurrency int64
	logger      zerolog.Logger
}

// NewWarmer creates a warmer with the given resolution concurrency.
func NewWarmer(resolver *Resolver, concurrency int) *Warmer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Warmer{
		resolver:    resolver,
		concurrency: int64(concurrency),
		logger:      log.With().Str("component", "place_warmer").Logger(),
	}
}

// Warm resolves the given addresses with bounded concurrency.
// Addresses already in the place store cost one indexed read each.
func (w *Warmer) Warm(ctx context.Context, addresses []string) error {
	w.logger.Info().Int("addresses", len(addresses)).Msg("Starting place warmup")

	sem := semaphore.NewWeighted(w.concurrency)
	var wg sync.WaitGroup

	for _, address := range addresses {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled mid-batch: let in-flight resolutions
			// finish before handing the error back.
			wg.Wait()
			return err
		}

		wg.Add(1)
		go func(address string) {
			defer sem.Release(1)
			defer wg.Done()

			_, err := w.resolver.Resolve(ctx, address)
			switch {
			case err == nil:
				warmupResolved.WithLabelValues("ok").Inc()
			case errors.Is(err, ErrUnresolved):
				warmupResolved.WithLabelValues("unresolved").Inc()
				w.logger.Warn().Str("address", address).Msg("Warmup could not resolve address")
			default:
				warmupResolved.WithLabelValues("error").Inc()
				w.logger.Error().Err(err).Str("address", address).Msg("Warmup failed for address")
			}
		}(address)
	}

	wg.Wait()
	w.logger.Info().Msg("Place warmup completed")
	return nil
}
