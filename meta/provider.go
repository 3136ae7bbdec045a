package meta

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"Shopify/parquet-dataset-reader/fragment"
	"Shopify/parquet-dataset-reader/generic"
	"Shopify/parquet-dataset-reader/remote"
)

const (
	// FetchGroupSize is the number of fragments covered by one remote
	// metadata-fetch unit of work.
	FetchGroupSize = 6
	// ParallelFetchThreshold is the fragment count above which metadata is
	// fetched remotely in parallel instead of sequentially in-process.
	ParallelFetchThreshold = 24
	// MaxFetchGroups caps the number of remote units so that scheduling
	// overhead stays bounded for very large datasets.
	MaxFetchGroups = 100
)

// Provider fetches per-file metadata for a set of fragment handles. The
// returned slice preserves input order and may be shorter than the input when
// trailing fragments have no retrievable metadata; that prefix signals the
// end of eagerly-available metadata, not an error.
type Provider interface {
	Prefetch(ctx context.Context, handles []fragment.Handle) ([]FileMetadata, error)
}

// LocalProvider resolves fragments in-process, one at a time. Only sensible
// when footer reads are cheap relative to scheduling remote work.
type LocalProvider struct {
	logger log.Logger
}

func NewLocalProvider(logger log.Logger) *LocalProvider {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &LocalProvider{logger: logger}
}

func (p *LocalProvider) Prefetch(ctx context.Context, handles []fragment.Handle) ([]FileMetadata, error) {
	metas := make([]FileMetadata, 0, len(handles))
	for _, handle := range handles {
		resolved, err := handle.Resolve(ctx)
		if err != nil {
			level.Debug(p.logger).Log("msg", "stopping metadata prefetch", "path", handle.Path, "err", err)
			break
		}
		metas = append(metas, FromFragment(resolved))
		resolved.Close()
	}
	return metas, nil
}

// ParallelProvider fans metadata fetches out to a remote runner once the
// fragment count makes sequential footer reads too slow. Fetch sub-tasks run
// independently; the caller blocks until all complete and concatenates the
// results in input order.
type ParallelProvider struct {
	runner      remote.Runner
	logger      log.Logger
	threshold   int
	groupSize   int
	maxGroups   int
	resolveOpts []fragment.ResolveOption
}

type ParallelProviderOption func(*ParallelProvider)

// WithFetchThreshold overrides the fragment count above which fetches go
// remote. The threshold is policy, not a hard law.
func WithFetchThreshold(threshold int) ParallelProviderOption {
	return func(p *ParallelProvider) {
		p.threshold = threshold
	}
}

func WithFetchGroupSize(size int) ParallelProviderOption {
	return func(p *ParallelProvider) {
		p.groupSize = size
	}
}

func WithMaxFetchGroups(groups int) ParallelProviderOption {
	return func(p *ParallelProvider) {
		p.maxGroups = groups
	}
}

// WithResolveOptions forwards options to the retrying resolver used by the
// remote fetch sub-tasks.
func WithResolveOptions(opts ...fragment.ResolveOption) ParallelProviderOption {
	return func(p *ParallelProvider) {
		p.resolveOpts = opts
	}
}

func NewParallelProvider(runner remote.Runner, logger log.Logger, opts ...ParallelProviderOption) *ParallelProvider {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	provider := &ParallelProvider{
		runner:    runner,
		logger:    logger,
		threshold: ParallelFetchThreshold,
		groupSize: FetchGroupSize,
		maxGroups: MaxFetchGroups,
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

func (p *ParallelProvider) Prefetch(ctx context.Context, handles []fragment.Handle) ([]FileMetadata, error) {
	if len(handles) <= p.threshold {
		return NewLocalProvider(p.logger).Prefetch(ctx, handles)
	}

	numGroups := len(handles) / p.groupSize
	if numGroups > p.maxGroups {
		numGroups = p.maxGroups
	}
	level.Debug(p.logger).Log("msg", "fetching metadata remotely", "fragments", len(handles), "groups", numGroups)

	pending := make([]*remote.Handle, 0, numGroups)
	for _, group := range generic.Split(handles, numGroups) {
		if len(group) == 0 {
			continue
		}
		group := group
		pending = append(pending, p.runner.Submit(ctx, func(ctx context.Context) (interface{}, error) {
			return fetchGroup(ctx, group, p.resolveOpts...)
		}))
	}

	results, err := p.runner.AwaitAll(ctx, pending)
	if err != nil {
		return nil, err
	}
	metas := make([]FileMetadata, 0, len(handles))
	for _, result := range results {
		groupMetas, ok := result.([]FileMetadata)
		if !ok {
			return nil, errors.Errorf("unexpected metadata fetch result type %T", result)
		}
		metas = append(metas, groupMetas...)
	}
	return metas, nil
}

// fetchGroup runs as one remote unit of work: resolve the group's handles
// with retry, then summarize each footer.
func fetchGroup(ctx context.Context, handles []fragment.Handle, opts ...fragment.ResolveOption) ([]FileMetadata, error) {
	fragments, err := fragment.ResolveAllWithRetry(ctx, handles, opts...)
	if err != nil {
		return nil, err
	}
	defer fragment.CloseAll(fragments)

	metas := make([]FileMetadata, 0, len(fragments))
	for _, resolved := range fragments {
		metas = append(metas, FromFragment(resolved))
	}
	return metas, nil
}
