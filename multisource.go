package evalbox

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/swdee/go-evalbox/annotation"
)

// EvaluateSources scores several prediction sources against the same ground
// truth, such as two model versions or a model against human labels. Up to
// workers evaluations run concurrently and results are keyed by source name.
//
// A source that fails is reported in the joined error, the remaining sources
// are still evaluated and returned.
func EvaluateSources(groundTruth []annotation.Annotation,
	sources map[string][]annotation.Annotation, p Params,
	workers int) (map[string]Result, error) {

	names := make([]string, 0, len(sources))

	for name := range sources {
		names = append(names, name)
	}

	sort.Strings(names)

	results := make(map[string]Result, len(names))

	if len(names) == 0 {
		return results, nil
	}

	if workers <= 0 || workers > len(names) {
		workers = len(names)
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	queue := make(chan string)

	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			for name := range queue {
				res, err := Evaluate(groundTruth, sources[name], p)

				mu.Lock()

				if err != nil {
					errs = append(errs, fmt.Errorf("source %s: %w", name, err))
				} else {
					results[name] = res
				}

				mu.Unlock()
			}
		}()
	}

	for _, name := range names {
		queue <- name
	}

	close(queue)
	wg.Wait()

	// sort so the joined error does not depend on completion order
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].Error() < errs[j].Error()
	})

	return results, errors.Join(errs...)
}
