package search

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPipelineBurstProperties(t *testing.T) {
	terms := []string{"", " ", "m", "ma", "mag", "nar", "nice", "x"}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("a burst searches at most its final term", prop.ForAll(
		func(picks []int) bool {
			searcher := newFakeSearcher()
			p := New(searcher, WithDebounce(testDebounce))
			defer p.Close()
			results := p.Results(context.Background())

			for _, i := range picks {
				if p.Submit(terms[i]) != nil {
					return false
				}
			}
			final := terms[picks[len(picks)-1]]

			heroes, ok := receive(results, waitResult)
			if !ok || heroes == nil {
				return false
			}
			calls := searcher.Calls()
			if strings.TrimSpace(final) == "" {
				return len(calls) == 0 && len(heroes) == 0
			}
			return len(calls) == 1 && calls[0] == final
		},
		gen.SliceOfN(6, gen.IntRange(0, len(terms)-1)),
	))

	properties.TestingRun(t)
}
