package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sync/atomic"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"Shopify/parquet-dataset-reader/reader"
	"Shopify/parquet-dataset-reader/storage"
)

type Options struct {
	// Path to a yaml file holding the object store configuration.
	StoreConfig string
	// Local directory shortcut, mutually exclusive with --store.config.
	Dir string
	// Dataset paths to read, files or directory prefixes.
	Paths []string
	// Columns to project, all when empty.
	Columns []string
	// Number of read tasks to plan.
	Parallelism int
	// Decode columns in parallel within a task.
	UseThreads bool
	// Target decoded block size in bytes.
	TargetBlockSize int64

	CPUProfile string
}

func main() {
	app := kingpin.New("dataset-read", "Read a partitioned parquet dataset from an object store.")
	opts := Options{}
	opts.BindFlags(app)
	if _, err := app.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	if opts.CPUProfile != "" {
		f, err := os.Create(opts.CPUProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	store, err := opts.storeConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := level.NewFilter(kitlog.NewLogfmtLogger(os.Stderr), level.AllowInfo())
	registry := prometheus.NewRegistry()

	ctx := context.Background()
	r, err := reader.Open(ctx, store, opts.Paths,
		reader.WithColumns(opts.Columns...),
		reader.WithThreads(opts.UseThreads),
		reader.WithTargetBlockSize(opts.TargetBlockSize),
		reader.WithLogger(logger),
		reader.WithMetricsRegisterer(registry),
	)
	if err != nil {
		log.Fatal(err)
	}
	level.Info(logger).Log(
		"msg", "opened dataset",
		"fragments", r.NumFragments(),
		"estimated_bytes", r.EstimateInMemorySize(),
	)

	tasks, err := r.ReadTasks(opts.Parallelism)
	if err != nil {
		log.Fatal(err)
	}

	var totalRows, totalBlocks int64
	var group errgroup.Group
	for _, task := range tasks {
		task := task
		group.Go(func() error {
			blocks := task.Execute(ctx)
			defer blocks.Close()
			for blocks.Next() {
				b := blocks.At()
				atomic.AddInt64(&totalRows, b.NumRows())
				atomic.AddInt64(&totalBlocks, 1)
				b.Release()
			}
			return blocks.Err()
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("read %d rows in %d blocks across %d tasks\n", totalRows, totalBlocks, len(tasks))
}

func (o *Options) BindFlags(app *kingpin.Application) {
	app.Flag("store.config", "Path to the object store yaml configuration.").
		Default("").StringVar(&o.StoreConfig)
	app.Flag("dir", "Read from a local directory instead of a configured bucket.").
		Default("").StringVar(&o.Dir)
	app.Flag("path", "Dataset path to read, repeatable. Reads the whole bucket when omitted.").
		StringsVar(&o.Paths)
	app.Flag("columns", "Columns to project, repeatable. Reads all columns when omitted.").
		StringsVar(&o.Columns)
	app.Flag("parallelism", "Number of read tasks to plan.").
		Default("1").IntVar(&o.Parallelism)
	app.Flag("use-threads", "Decode columns in parallel within each task.").
		Default("false").BoolVar(&o.UseThreads)
	app.Flag("target-block-size", "Target decoded block size in bytes.").
		Default("536870912").Int64Var(&o.TargetBlockSize)
	app.Flag("cpuprofile", "Write a CPU profile to the given file.").
		Default("").StringVar(&o.CPUProfile)
}

func (o *Options) storeConfig() (storage.Config, error) {
	if o.Dir != "" {
		return storage.FilesystemBucket(o.Dir), nil
	}
	if o.StoreConfig == "" {
		return storage.Config{}, fmt.Errorf("one of --store.config or --dir is required")
	}
	contents, err := os.ReadFile(o.StoreConfig)
	if err != nil {
		return storage.Config{}, err
	}
	var store storage.Config
	if err := yaml.Unmarshal(contents, &store); err != nil {
		return storage.Config{}, err
	}
	return store, nil
}
