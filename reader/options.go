package reader

import (
	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/go-kit/kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"Shopify/parquet-dataset-reader/block"
	"Shopify/parquet-dataset-reader/fragment"
	"Shopify/parquet-dataset-reader/meta"
	"Shopify/parquet-dataset-reader/remote"
)

// RowBatchSize is the number of rows decoded per batch. Sized to produce
// roughly 10MiB batches for rows around 1KiB in size.
const RowBatchSize = 100000

type config struct {
	columns         []string
	schema          *arrow.Schema
	transform       block.Transform
	batchSize       int64
	useThreads      bool
	targetBlockSize int64
	provider        meta.Provider
	runner          remote.Runner
	logger          log.Logger
	registerer      prometheus.Registerer
	resolveOpts     []fragment.ResolveOption
	alloc           memory.Allocator
}

type Option func(*config)

// WithColumns projects the dataset down to the named columns, in the given
// order. Partition columns may be requested like any other column.
func WithColumns(columns ...string) Option {
	return func(cfg *config) {
		cfg.columns = columns
	}
}

// WithSchema pins the target schema instead of inferring it from the first
// fragment. An empty schema is valid and yields row-count-only blocks.
func WithSchema(schema *arrow.Schema) Option {
	return func(cfg *config) {
		cfg.schema = schema
	}
}

// WithTransform applies a per-batch transform inside each read task, before
// batches are buffered into blocks. Transform failures are not retried.
func WithTransform(transform block.Transform) Option {
	return func(cfg *config) {
		cfg.transform = transform
	}
}

func WithBatchSize(rows int64) Option {
	return func(cfg *config) {
		cfg.batchSize = rows
	}
}

// WithThreads lets the decoder read columns in parallel inside a task. Off by
// default to bound per-task resource usage.
func WithThreads(use bool) Option {
	return func(cfg *config) {
		cfg.useThreads = use
	}
}

func WithTargetBlockSize(bytes int64) Option {
	return func(cfg *config) {
		cfg.targetBlockSize = bytes
	}
}

func WithMetadataProvider(provider meta.Provider) Option {
	return func(cfg *config) {
		cfg.provider = provider
	}
}

// WithRunner sets the execution facility used for parallel metadata fetch.
func WithRunner(runner remote.Runner) Option {
	return func(cfg *config) {
		cfg.runner = runner
	}
}

func WithLogger(logger log.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithMetricsRegisterer instruments the planning-time bucket session.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(cfg *config) {
		cfg.registerer = reg
	}
}

// WithResolveOptions forwards options to the retrying fragment resolver used
// during planning and inside read tasks.
func WithResolveOptions(opts ...fragment.ResolveOption) Option {
	return func(cfg *config) {
		cfg.resolveOpts = opts
	}
}

func WithAllocator(alloc memory.Allocator) Option {
	return func(cfg *config) {
		cfg.alloc = alloc
	}
}

func applyOptions(opts []Option) config {
	cfg := config{
		batchSize:       RowBatchSize,
		targetBlockSize: block.DefaultTargetBlockSize,
		logger:          log.NewNopLogger(),
		alloc:           memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runner == nil {
		cfg.runner = remote.NewPool(meta.MaxFetchGroups, remote.WithProgress("metadata fetch"))
	}
	if cfg.provider == nil {
		cfg.provider = meta.NewParallelProvider(cfg.runner, cfg.logger, meta.WithResolveOptions(cfg.resolveOpts...))
	}
	return cfg
}
