package ollama

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// EnsureReady checks that Ollama is reachable and that the chat model is
// available, pulling missing models concurrently with progress written to w.
// It finishes with a warm-up chat so the first real turn doesn't pay the
// cold-load penalty. Returns an error only if Ollama is unreachable or a
// pull fails; warm-up failures are reported but non-fatal.
func EnsureReady(ctx context.Context, c *Client, models []string, w io.Writer) error {
	if !c.IsRunning(ctx) {
		return fmt.Errorf("ollama is not running, start it with: ollama serve")
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	for _, model := range models {
		if c.HasModel(ctx, model) {
			fmt.Fprintf(w, "model %s: ready\n", model)
			continue
		}
		g.Go(func() error {
			fmt.Fprintf(w, "model %s: pulling...\n", model)
			err := c.PullModel(gCtx, model, func(p PullProgress) {
				mu.Lock()
				defer mu.Unlock()
				if p.Total > 0 {
					fmt.Fprintf(w, "  %s: %s %.0f%%\n", model, p.Status, float64(p.Completed)/float64(p.Total)*100)
				}
			})
			if err != nil {
				return fmt.Errorf("pulling model %s: %w", model, err)
			}
			fmt.Fprintf(w, "model %s: ready\n", model)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(models) == 0 {
		return nil
	}

	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := c.Chat(warmCtx, models[0], []Message{{Role: "user", Content: "ping"}}, nil); err != nil {
		fmt.Fprintf(w, "model %s: warm-up failed (non-fatal): %v\n", models[0], err)
	} else {
		fmt.Fprintf(w, "model %s: warm\n", models[0])
	}
	return nil
}
