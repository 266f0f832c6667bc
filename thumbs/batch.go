package thumbs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pubgate/pubgate/access"
	"github.com/pubgate/pubgate/store"
)

// Result is the outcome of one batch refresh item.
type Result struct {
	Path      string
	Generated bool
	Err       error
}

// Summary aggregates a batch run.
type Summary struct {
	Generated int
	Fresh     int
	Skipped   int
	Failed    int
}

// RefreshAll enumerates every source object in the store and brings its
// cached thumbnail up to date using a bounded worker pool. Objects in the
// cache namespace, objects with unrecognized extensions, and objects in
// subtrees whose policy requires interactive credentials (http) or denies
// access outright (private) are skipped. Item failures are logged and
// counted; they never abort the rest of the batch.
//
// Refreshes of distinct paths touch distinct cache keys and cannot
// conflict; a race between two refreshes of the same path is tolerated
// because regeneration is idempotent in effect.
func (m *Manager) RefreshAll(ctx context.Context, tree []access.PolicyNode, workers int) (Summary, error) {
	objects, err := m.store.ListAll(ctx, "")
	if err != nil {
		return Summary{}, fmt.Errorf("enumerate source objects: %w", err)
	}

	if workers < 1 {
		workers = 1
	}

	var summary Summary
	var pending []refreshJob
	for _, info := range objects {
		job, ok := m.classify(tree, info)
		if !ok {
			summary.Skipped++
			continue
		}
		pending = append(pending, job)
	}

	jobs := make(chan refreshJob)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				generated, err := m.EnsureFresh(ctx, job.info.Key, job.info.LastModified, job.conv)
				results <- Result{Path: job.info.Key, Generated: generated, Err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, job := range pending {
			select {
			case jobs <- job:
			case <-ctx.Done():
				// Stop submitting new work; in-flight conversions run
				// to completion or failure.
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		switch {
		case res.Err != nil:
			summary.Failed++
			m.logger.Warn("Thumbnail refresh failed",
				zap.String("path", res.Path),
				zap.Error(res.Err))
		case res.Generated:
			summary.Generated++
		default:
			summary.Fresh++
		}
	}

	return summary, nil
}

type refreshJob struct {
	info store.ObjectInfo
	conv Converter
}

// classify decides whether an enumerated object belongs in the batch and
// picks its converter.
func (m *Manager) classify(tree []access.PolicyNode, info store.ObjectInfo) (refreshJob, bool) {
	if m.prefix != "" && strings.HasPrefix(info.Key, m.prefix) {
		return refreshJob{}, false
	}

	switch access.Resolve(tree, info.Key) {
	case access.LevelNone, access.LevelSign:
	default:
		return refreshJob{}, false
	}

	family, ok := FamilyForPath(info.Key)
	if !ok {
		return refreshJob{}, false
	}
	conv, ok := m.converters[family]
	if !ok {
		return refreshJob{}, false
	}

	return refreshJob{info: info, conv: conv}, true
}
