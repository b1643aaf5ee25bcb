package raster

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Strategy selects how pages are scheduled onto the renderer.
type Strategy int

const (
	// StrategyPool renders pages concurrently on a bounded worker pool.
	StrategyPool Strategy = iota

	// StrategyDirect renders pages one at a time in order. Used for
	// documents with heavy embedded fonts, where parallel renders multiply
	// peak memory.
	StrategyDirect
)

func (s Strategy) String() string {
	if s == StrategyDirect {
		return "direct"
	}
	return "pool"
}

// StrategyFor picks the schedule for a language. CJK exports carry full font
// subsets on every page and render sequentially.
func StrategyFor(language string) Strategy {
	switch language {
	case "zh", "ja", "ko":
		return StrategyDirect
	}
	return StrategyPool
}

// RenderAll renders pages 1..pages and returns the JPEGs in page order. A
// failing page aborts the run; partial results are never returned. workers
// bounds pool concurrency, zero meaning GOMAXPROCS.
func RenderAll(ctx context.Context, r PageRenderer, pdfData []byte, pages int, opts Options, strategy Strategy, workers int) ([][]byte, error) {
	if pages < 1 {
		return nil, fmt.Errorf("nothing to render")
	}
	out := make([][]byte, pages)

	if strategy == StrategyDirect {
		for page := 1; page <= pages; page++ {
			data, err := r.RenderPage(ctx, pdfData, page, opts)
			if err != nil {
				return nil, err
			}
			out[page-1] = data
		}
		return out, nil
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for page := 1; page <= pages; page++ {
		g.Go(func() error {
			data, err := r.RenderPage(gctx, pdfData, page, opts)
			if err != nil {
				return err
			}
			out[page-1] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
