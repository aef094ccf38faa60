package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/logging"
	"ctrlvocab/internal/prompt"
	"ctrlvocab/internal/vocab"
)

// DefaultBatchSize is the reader batch size when none is configured.
const DefaultBatchSize = 50000

// Options configures a pipeline run.
type Options struct {
	// Sources are read in order. At least one is required.
	Sources []string
	// Destinations is empty (console), one per source, or a single path
	// when Fuse is set.
	Destinations []string
	// Fuse merges all sources into one sequence space and destination.
	Fuse bool

	BatchSize    int
	InputBuffer  int
	OutputBuffer int

	Store    *vocab.Store
	Prompter prompt.Prompter
	// Suggest attaches the closest known canonical value to each question.
	Suggest  bool
	Logger   *slog.Logger
}

// Result summarizes a completed run.
type Result struct {
	// Values holds the emitted values in order when writing to the console.
	Values []string
	// Counts maps each emitted canonical value to its occurrences.
	Counts map[string]int
	// Total is the number of emitted records.
	Total int
	// Held is the number of records left in the reorder buffer.
	Held int
	// Prompts is the number of questions put to the operator.
	Prompts int
	// Skipped counts queued keys mapped by something other than the
	// operator's answer, before or while they were asked.
	Skipped int
	// Duration is the wall time of Run.
	Duration time.Duration
}

// Pipeline wires the four stages for a single run.
type Pipeline struct {
	opts    Options
	logger  *slog.Logger
	console bool
	ran     atomic.Bool
}

// New validates opts. No goroutine is started and no file is touched.
func New(opts Options) (*Pipeline, error) {
	if len(opts.Sources) == 0 {
		return nil, faults.Configuration("pipeline", "no source files given")
	}
	if opts.Store == nil {
		return nil, faults.Configuration("pipeline", "mapping store is required")
	}
	if opts.Prompter == nil {
		return nil, faults.Configuration("pipeline", "prompter is required")
	}
	switch n := len(opts.Destinations); {
	case n == 0:
	case opts.Fuse && n != 1:
		return nil, faults.Configuration("pipeline", fmt.Sprintf("fuse mode takes exactly one destination, got %d", n))
	case !opts.Fuse && n != len(opts.Sources):
		return nil, faults.Configuration("pipeline", fmt.Sprintf("%d destinations for %d sources", n, len(opts.Sources)))
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.InputBuffer < 0 || opts.OutputBuffer < 0 {
		return nil, faults.Configuration("pipeline", "channel buffers must be >= 0")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Pipeline{
		opts:    opts,
		logger:  opts.Logger,
		console: len(opts.Destinations) == 0,
	}, nil
}

// Run executes the pipeline and returns once every stage has stopped.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if !p.ran.CompareAndSwap(false, true) {
		return Result{}, errors.New("pipeline already ran")
	}
	started := time.Now()
	logger := logging.WithContext(ctx, p.logger)

	sinks, console, err := p.openSinks()
	if err != nil {
		return Result{}, err
	}

	input := make(chan []Record, p.opts.InputBuffer)
	output := make(chan []Record, p.opts.OutputBuffer)
	prompts := NewQueue[PromptRequest]()

	reader := &Reader{
		sources:   p.opts.Sources,
		destFor:   p.destFor,
		sharedSeq: p.console || p.opts.Fuse,
		batchSize: p.opts.BatchSize,
		out:       input,
		logger:    stageLogger(logger, "reader"),
	}
	converter := newConverter(p.opts.Store, input, output, prompts, stageLogger(logger, "converter"))
	asker := &Prompter{
		store:   p.opts.Store,
		queue:   prompts,
		asker:   p.opts.Prompter,
		suggest: p.opts.Suggest,
		logger:  stageLogger(logger, "prompter"),
	}
	writer := newWriter(output, sinks, stageLogger(logger, "writer"))

	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.Int("sources", len(p.opts.Sources)),
		logging.Int("destinations", len(sinks)),
		logging.Bool("fuse", p.opts.Fuse),
		logging.Int("known_keys", p.opts.Store.Len()),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return reader.Run(groupCtx) })
	group.Go(func() error { return converter.Run(groupCtx) })
	group.Go(func() error { return asker.Run(groupCtx) })
	group.Go(func() error { return writer.Run(groupCtx) })
	err = group.Wait()

	result := Result{
		Counts:   writer.counts,
		Total:    writer.total,
		Held:     writer.Held(),
		Prompts:  asker.asked,
		Skipped:  asker.skipped,
		Duration: time.Since(started),
	}
	if console != nil {
		result.Values = console.Values()
	}
	if err != nil {
		logging.ErrorWithContext(logger, "pipeline failed", "pipeline_failed",
			logging.Error(err),
			logging.Int("written", result.Total),
			logging.Int("prompts", result.Prompts),
		)
		return result, err
	}
	logger.Info("pipeline finished",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.Int("written", result.Total),
		logging.Int("prompts", result.Prompts),
		logging.Int("skipped", result.Skipped),
		logging.Int("mapping_keys", p.opts.Store.Len()),
		logging.Int64("mapping_version", int64(p.opts.Store.Version())),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func (p *Pipeline) destFor(source int) int {
	switch {
	case p.console:
		return ConsoleDest
	case p.opts.Fuse:
		return 0
	default:
		return source
	}
}

func (p *Pipeline) openSinks() (map[int]Sink, *ConsoleSink, error) {
	if p.console {
		console := &ConsoleSink{}
		return map[int]Sink{ConsoleDest: console}, console, nil
	}
	sinks := make(map[int]Sink, len(p.opts.Destinations))
	for i, path := range p.opts.Destinations {
		sink, err := NewFileSink(path)
		if err != nil {
			for _, opened := range sinks {
				_ = opened.Abort()
			}
			return nil, nil, err
		}
		sinks[i] = sink
	}
	return sinks, nil, nil
}

func stageLogger(logger *slog.Logger, stage string) *slog.Logger {
	return logging.NewComponentLogger(logger, "pipeline").With(logging.String(logging.FieldStage, stage))
}
