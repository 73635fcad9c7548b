// Package extractor runs one site: it owns the page fetcher, drives the adapter,
// builds and cleans the records and writes the artifacts.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"barreau-extractor/adapters"
	"barreau-extractor/cleaner"
	"barreau-extractor/internal/types"
	"barreau-extractor/output"
	"barreau-extractor/record"
	"barreau-extractor/utils"
)

// MaxWorkers bounds parallel detail fetches
const MaxWorkers = 10

// Result summarises one run
type Result struct {
	RunID       string
	Site        string
	Records     []*types.Lawyer
	Processed   int
	Dropped     int
	FetchErrors int
	Interrupted bool
	Cleaning    cleaner.Stats
	Artifacts   output.Artifacts
	EmptyReport string
	Checkpoints []string
	Duration    time.Duration
}

// Runner drives one adapter through fetching, building, cleaning and writing
type Runner struct {
	config  *types.Config
	logger  types.Logger
	limiter *rate.Limiter
	now     func() time.Time
}

// NewRunner creates a runner for the given configuration
func NewRunner(config *types.Config, logger types.Logger) *Runner {
	return &Runner{
		config:  config,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		now:     time.Now,
	}
}

// RunSite creates the page fetcher and the site adapter, runs them and releases both
func (r *Runner) RunSite(ctx context.Context, registry *adapters.Registry, site string) (*Result, error) {
	def, ok := registry.Get(site)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", types.ErrInvalidConfig, adapters.ErrUnknownSite, site)
	}
	if def.Scripted {
		r.config.Mode = types.ModeScripted
	}

	fetcher, err := utils.NewPageFetcher(r.config, r.logger)
	if err != nil {
		return nil, err
	}
	defer fetcher.Close()

	adapter, err := registry.NewAdapter(site, r.config, r.logger, fetcher)
	if err != nil {
		return nil, err
	}
	defer adapter.Close()

	r.logger.Infof("Fetching %s in %s mode", site, fetcher.Mode())
	return r.Run(ctx, adapter)
}

// run is the mutable state of one Run
type run struct {
	mu          sync.Mutex
	records     map[int]*types.Lawyer
	processed   int
	dropped     int
	fetchErrors int
	checkpoints []string
}

// snapshot returns the built records in yield order; callers hold mu
func (s *run) snapshot() []*types.Lawyer {
	indexes := make([]int, 0, len(s.records))
	for i := range s.records {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]*types.Lawyer, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.records[i])
	}
	return out
}

// Run consumes the adapter's listings and produces the run's artifacts.
// Cancelling ctx stops the run after a partial checkpoint; the result is then
// marked Interrupted and no final artifacts are written.
func (r *Runner) Run(ctx context.Context, adapter types.SiteAdapter) (*Result, error) {
	start := r.now()
	result := &Result{
		RunID: uuid.NewString(),
		Site:  adapter.Name(),
	}
	r.logger.Infof("Starting run %s for %s", result.RunID, result.Site)

	writer := output.NewWriter(r.config.OutputDir, adapter.Name(), start, r.logger)
	builder := record.NewBuilder(adapter.Convention())
	resolver, _ := adapter.(types.DetailResolver)
	state := &run{records: make(map[int]*types.Lawyer)}

	workers := r.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)

	consumed := 0
	iterErr := adapter.IterateListings(ctx, func(listing types.Listing) bool {
		if ctx.Err() != nil {
			return false
		}

		index := consumed
		consumed++
		g.Go(func() error {
			r.process(ctx, index, listing, builder, resolver, writer, state)
			return nil
		})

		return r.config.Limit == 0 || consumed < r.config.Limit
	})
	_ = g.Wait()

	if iterErr != nil && !errors.Is(iterErr, context.Canceled) && !errors.Is(iterErr, context.DeadlineExceeded) {
		r.logger.Errorf("Listing iteration for %s failed: %v", result.Site, iterErr)
	}

	state.mu.Lock()
	records := state.snapshot()
	result.Processed = state.processed
	result.Dropped = state.dropped
	result.FetchErrors = state.fetchErrors
	result.Checkpoints = state.checkpoints
	state.mu.Unlock()

	if ctx.Err() != nil {
		result.Interrupted = true
		result.Records = records
		result.Duration = time.Since(start)
		r.logger.Warnf("Run interrupted after %d listings", result.Processed)

		path, err := writer.WriteCheckpoint(records, result.Processed, r.now())
		if err != nil {
			return result, fmt.Errorf("failed to write interrupt checkpoint: %w", err)
		}
		result.Checkpoints = append(result.Checkpoints, path)
		return result, nil
	}

	summary := output.Summary{
		RunID:       result.RunID,
		Site:        result.Site,
		Start:       start,
		Processed:   result.Processed,
		Dropped:     result.Dropped,
		FetchErrors: result.FetchErrors,
	}

	if len(records) == 0 {
		r.logger.Warnf("No records extracted for %s", result.Site)
		summary.Duration = time.Since(start)
		path, err := writer.WriteEmptyReport(summary)
		if err != nil {
			return result, err
		}
		result.EmptyReport = path
		result.Duration = summary.Duration
		return result, nil
	}

	cleaned, stats := cleaner.New(r.config.GenericEmailThreshold, adapter.Convention(), r.logger).Clean(records)
	result.Records = cleaned
	result.Cleaning = stats

	summary.Cleaning = stats
	summary.Duration = time.Since(start)
	artifacts, err := writer.WriteAll(cleaned, summary)
	if err != nil {
		return result, err
	}
	result.Artifacts = artifacts
	result.Duration = time.Since(start)

	r.logger.Infof("Run %s completed in %v: %d listings processed, %d records retained, %d dropped, %d fetch errors",
		result.RunID, result.Duration, result.Processed, len(cleaned), result.Dropped, result.FetchErrors)
	return result, nil
}

// process resolves and builds one listing and records the outcome
func (r *Runner) process(ctx context.Context, index int, listing types.Listing, builder *record.Builder, resolver types.DetailResolver, writer *output.Writer, state *run) {
	var (
		lawyer   *types.Lawyer
		fetchErr error
		buildErr error
	)

	if listing.NeedsDetail() {
		if resolver == nil {
			buildErr = fmt.Errorf("listing %s needs a detail fetch but the adapter cannot resolve it", listing.DetailURL)
		} else {
			listing, fetchErr = r.resolve(ctx, resolver, listing)
		}
	}
	if fetchErr != nil && ctx.Err() != nil {
		// interrupted: the listing does not count as processed
		return
	}
	if fetchErr == nil && buildErr == nil {
		lawyer, buildErr = builder.Build(listing)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.processed++
	switch {
	case fetchErr != nil:
		state.fetchErrors++
		r.logger.Warnf("Skipping %s: %v", listing.DetailURL, fetchErr)
	case buildErr != nil:
		state.dropped++
		r.logger.Warnf("Dropping listing from %s: %v", listing.SourceURL, buildErr)
	default:
		state.records[index] = lawyer
		r.logger.Debugf("Listing %d: %s", index+1, lawyer.FullName)
	}

	if r.config.CheckpointEvery > 0 && state.processed%r.config.CheckpointEvery == 0 {
		path, err := writer.WriteCheckpoint(state.snapshot(), state.processed, r.now())
		if err != nil {
			r.logger.Errorf("Checkpoint failed: %v", err)
			return
		}
		state.checkpoints = append(state.checkpoints, path)
	}
}

// resolve fetches a detail listing with jitter, the rate cap and retries of transient errors
func (r *Runner) resolve(ctx context.Context, resolver types.DetailResolver, listing types.Listing) (types.Listing, error) {
	var err error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.config.RetryDelay * time.Duration(attempt)
			r.logger.Debugf("Retrying %s in %v (attempt %d/%d): %v", listing.DetailURL, delay, attempt, r.config.MaxRetries, err)
			if waitErr := sleep(ctx, delay); waitErr != nil {
				return listing, waitErr
			}
		}

		if waitErr := sleep(ctx, r.jitter()); waitErr != nil {
			return listing, waitErr
		}
		if waitErr := r.limiter.Wait(ctx); waitErr != nil {
			return listing, waitErr
		}

		var resolved types.Listing
		resolved, err = resolver.ResolveListing(ctx, listing)
		if err == nil {
			return resolved, nil
		}
		if !utils.Retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return listing, err
}

// jitter returns a random delay in [DelayMin, DelayMax]
func (r *Runner) jitter() time.Duration {
	span := r.config.DelayMax - r.config.DelayMin
	if span <= 0 {
		return r.config.DelayMin
	}
	return r.config.DelayMin + time.Duration(rand.Int63n(int64(span)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExitCode maps a run outcome to the process exit status:
// 0 success or clean interrupt, 1 fatal error, 2 no record extracted
func ExitCode(result *Result, err error) int {
	switch {
	case err != nil || result == nil:
		return 1
	case result.Interrupted:
		return 0
	case len(result.Records) == 0:
		return 2
	}
	return 0
}
