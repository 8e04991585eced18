package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/internal/domain/search"
	"github.com/okian/heroes/pkg/logger"
)

const defaultLinger = 2 * time.Second

func (c *cli) watchCommand() *cobra.Command {
	var linger time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Search as you type: read terms from stdin, print live results",
		Long: `watch reads one search term per line from stdin and feeds it through
the search pipeline: terms are debounced, repeated terms are ignored, and only
results for the latest term are printed. A blank line clears the results.

At end of input watch keeps listening for --linger so that the last term
still gets its answer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.newSession()
			if err != nil {
				return err
			}
			p := search.New(s.client,
				search.WithDebounce(c.cfg.Debounce()),
				search.WithLogger(logger.Named("search")),
			)
			defer p.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			results := p.Results(ctx)

			eof := make(chan error, 1)
			go func() {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if err := p.Submit(sc.Text()); err != nil {
						eof <- err
						return
					}
				}
				eof <- sc.Err()
			}()

			if err := c.watchLoop(ctx, results, eof, c.cfg.Debounce()+linger); err != nil {
				return err
			}
			return c.finish(s)
		},
	}
	cmd.Flags().DurationVar(&linger, "linger", defaultLinger, "how long to wait for results after end of input")
	return cmd
}

// watchLoop prints results until ctx ends or input is exhausted and no
// result has arrived for linger.
func (c *cli) watchLoop(ctx context.Context, results <-chan []model.Hero, eof <-chan error, linger time.Duration) error {
	var deadline <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-eof:
			if err != nil {
				return fmt.Errorf("read terms: %w", err)
			}
			eof = nil
			deadline = time.After(linger)
		case heroes, ok := <-results:
			if !ok {
				return nil
			}
			if err := c.printResult(heroes); err != nil {
				return err
			}
			if eof == nil {
				deadline = time.After(linger)
			}
		case <-deadline:
			return nil
		}
	}
}

func (c *cli) printResult(heroes []model.Hero) error {
	if c.format == formatJSON {
		// one document per line so the stream stays line-oriented
		b, err := json.Marshal(heroes)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.out, string(b))
		return err
	}
	fmt.Fprintf(c.out, "-- %d hero(es)\n", len(heroes))
	if len(heroes) == 0 {
		return nil
	}
	return c.printHeroes(heroes)
}
