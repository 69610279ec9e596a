package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Source produces an ephemeris series for one body over a date range
type Source interface {
	Fetch(ctx context.Context, id string, start, stop time.Time) (Series, error)
	Name() string
}

// LoadOptions controls a bulk load
type LoadOptions struct {
	Verbose bool
	// Progress is called after each body, successful or not
	Progress func(done, total int, id string, err error)
}

// Load fetches every id from src one after another. A body that fails is
// recorded as an empty series and the remaining bodies are still loaded.
// Only context cancellation stops the load early.
func Load(ctx context.Context, src Source, store *Store, ids []string, start, stop time.Time, opts LoadOptions) error {
	if !stop.After(start) {
		return fmt.Errorf("invalid range: stop %s is not after start %s", stop.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("failed to load ephemeris: %w", err)
		}

		if opts.Verbose {
			log.Printf("Fetching %s ephemeris for body %s (%d/%d)", src.Name(), id, i+1, len(ids))
		}

		series, err := src.Fetch(ctx, id, start, stop)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("failed to load ephemeris: %w", err)
			}
			log.Printf("Warning: no ephemeris for body %s: %v", id, err)
			series = Series{MeanRadiusAU: series.MeanRadiusAU}
			if series.MeanRadiusAU == 0 {
				series.MeanRadiusAU = DefaultRadiusAU
			}
		}

		if setErr := store.Set(id, series); setErr != nil {
			log.Printf("Warning: %v", setErr)
			if err == nil {
				err = setErr
			}
		}

		if opts.Verbose && err == nil {
			log.Printf("Loaded %d samples for body %s", series.Len(), id)
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(ids), id, err)
		}
	}
	return nil
}
