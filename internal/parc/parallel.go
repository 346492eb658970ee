package parc

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/aposteriorist/parctool/internal/config"
)

func workerCount(opts config.Options) int64 {
	if opts.Workers > 0 {
		return int64(opts.Workers)
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return int64(n)
}

// DecodeAll runs Decode across every file in the archive whose payload
// is compressed, bounded by opts.Workers (or GOMAXPROCS); files already
// holding plaintext are skipped, so no redundant-decode warning arises.
// It collects every non-redundant warning and returns the first hard
// error encountered, canceling the remaining work.
func (a *Archive) DecodeAll(ctx context.Context, opts config.Options) ([]*Warning, error) {
	sem := semaphore.NewWeighted(workerCount(opts))
	g, ctx := errgroup.WithContext(ctx)

	warnings := make([]*Warning, len(a.Files))
	for i, f := range a.Files {
		i, f := i, f
		if !f.IsCompressed() {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			if werr := g.Wait(); werr != nil {
				return nil, werr
			}
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			w, err := f.Decode()
			if err != nil {
				return err
			}
			warnings[i] = w
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return compactWarnings(warnings), nil
}

// EncodeAll runs Encode across every loaded file in the archive with
// the same concurrency bound and error semantics as DecodeAll.
func (a *Archive) EncodeAll(ctx context.Context, params EncodeParams, force bool, opts config.Options) ([]*Warning, error) {
	sem := semaphore.NewWeighted(workerCount(opts))
	g, ctx := errgroup.WithContext(ctx)

	warnings := make([]*Warning, len(a.Files))
	for i, f := range a.Files {
		i, f := i, f
		if err := sem.Acquire(ctx, 1); err != nil {
			if werr := g.Wait(); werr != nil {
				return nil, werr
			}
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			w, err := f.Encode(params, force)
			if err != nil {
				return err
			}
			warnings[i] = w
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return compactWarnings(warnings), nil
}

func compactWarnings(in []*Warning) []*Warning {
	var out []*Warning
	for _, w := range in {
		if w != nil {
			out = append(out, w)
		}
	}
	return out
}
