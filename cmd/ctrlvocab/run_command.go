package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ctrlvocab/internal/config"
	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/logging"
	"ctrlvocab/internal/pipeline"
	"ctrlvocab/internal/prompt"
	"ctrlvocab/internal/report"
	"ctrlvocab/internal/snapshot"
	"ctrlvocab/internal/vocab"
	"ctrlvocab/internal/watch"
)

type runOptions struct {
	inputs        []string
	outputs       []string
	importPath    string
	exportPath    string
	answersPath   string
	promptStyle   string
	caseSensitive bool
	fuse          bool
	summary       bool
	watch         bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [flags] [SRC...]",
		Short: "Normalize source files, prompting for unseen values",
		Long: `Read every source line by line and replace each value with its canonical
form. Values whose key is unknown are put to the operator once; an empty
answer keeps the original value.

Without --output the results, the final mapping and the share of every
canonical value are printed. With one --output per source each source is
written to its destination; --fuse writes all sources to a single output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.inputs = append(opts.inputs, args...)
			return executeRun(cmd, ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.inputs, "input", "i", nil, "Source file (repeatable)")
	flags.StringArrayVarP(&opts.outputs, "output", "o", nil, "Destination file, one per source or one with --fuse (repeatable)")
	flags.StringVarP(&opts.importPath, "mapping", "m", "", "Mapping snapshot to seed the vocabulary (.json, .toml, .yaml, .db)")
	flags.StringVarP(&opts.exportPath, "export", "e", "", "Write the final mapping to this snapshot")
	flags.StringVar(&opts.answersPath, "answers", "", "Answer prompts from this snapshot instead of asking")
	flags.StringVar(&opts.promptStyle, "prompt", "", "Prompt style: auto, line or tui (overrides prompt.style)")
	flags.BoolVarP(&opts.caseSensitive, "case-sensitive", "c", false, "Treat values differing only in case as distinct")
	flags.BoolVarP(&opts.fuse, "fuse", "f", false, "Merge all sources into a single output")
	flags.BoolVar(&opts.summary, "summary", false, "Print the mapping and percentages when writing files too")
	flags.BoolVar(&opts.watch, "watch", false, "Merge edits of the --mapping file while running")

	return cmd
}

func executeRun(cmd *cobra.Command, cmdCtx *commandContext, opts runOptions) error {
	if len(opts.inputs) == 0 {
		return faults.Configuration("run", "no source files given (use --input or positional arguments)")
	}
	if opts.watch && opts.importPath == "" {
		return faults.Configuration("run", "--watch requires --mapping")
	}

	cfg, err := cmdCtx.configCopy()
	if err != nil {
		return err
	}
	if opts.caseSensitive {
		cfg.Key.CaseSensitive = true
	}
	if opts.promptStyle != "" {
		cfg.Prompt.Style = strings.ToLower(strings.TrimSpace(opts.promptStyle))
		if err := cfg.Validate(); err != nil {
			return faults.Wrap(faults.ErrConfiguration, "run", "prompt style", opts.promptStyle, err)
		}
	}

	logger, err := cmdCtx.logger(cfg)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	ctx := logging.WithRunID(cmd.Context(), runID)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "run"))

	store := vocab.NewStore(vocab.NewKeyer(cfg.Key.CaseSensitive, cfg.Key.UnicodeNormalize))
	snapOpts := snapshot.Options{LockTimeout: cfg.LockTimeout(), RunID: runID, Logger: logger}
	if opts.importPath != "" {
		entries, err := snapshot.Load(ctx, opts.importPath, snapOpts)
		if err != nil {
			return err
		}
		added := store.Merge(entries)
		logger.Info("mapping imported",
			logging.String("path", opts.importPath),
			logging.Int("entries", len(entries)),
			logging.Int("keys", added),
		)
	}

	asker, closeAsker, err := buildPrompter(ctx, cmd, cfg, opts, snapOpts, logger)
	if err != nil {
		return err
	}
	defer closeAsker()

	p, err := pipeline.New(pipeline.Options{
		Sources:      opts.inputs,
		Destinations: opts.outputs,
		Fuse:         opts.fuse,
		BatchSize:    cfg.Pipeline.BatchSize,
		InputBuffer:  cfg.Pipeline.InputBuffer,
		OutputBuffer: cfg.Pipeline.OutputBuffer,
		Store:        store,
		Prompter:     asker,
		Suggest:      cfg.Prompt.Suggest,
		Logger:       logging.NewComponentLogger(logger, "pipeline"),
	})
	if err != nil {
		return err
	}

	stopWatch, err := startWatch(ctx, opts, cfg, store, logger)
	if err != nil {
		return err
	}
	result, runErr := p.Run(ctx)
	stopWatch()

	exportErr := exportMapping(ctx, opts.exportPath, store, snapOpts, runErr, logger)
	if runErr != nil {
		if exportErr != nil {
			logging.WarnWithContext(logger, "mapping export failed", "export_failed", logging.Error(exportErr))
		}
		return runErr
	}
	if exportErr != nil {
		return exportErr
	}

	out := cmd.OutOrStdout()
	console := len(opts.outputs) == 0
	if console {
		for _, value := range result.Values {
			fmt.Fprintln(out, value)
		}
	}
	if console || opts.summary {
		printSummary(out, store, result)
	}
	return nil
}

func buildPrompter(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts runOptions, snapOpts snapshot.Options, logger *slog.Logger) (prompt.Prompter, func(), error) {
	if opts.answersPath != "" {
		answers, err := snapshot.Load(ctx, opts.answersPath, snapOpts)
		if err != nil {
			return nil, nil, err
		}
		scripted := prompt.NewScriptedPrompter(answers)
		rec := prompt.NewRecordingPrompter(scripted)
		return rec, func() { logScriptedAnswers(logger, opts.answersPath, scripted, rec) }, nil
	}

	asker, err := prompt.ForStyle(cfg.Prompt.Style, cmd.InOrStdin(), cmd.ErrOrStderr(), cfg.Prompt.Template)
	if err != nil {
		return nil, nil, faults.Wrap(faults.ErrConfiguration, "run", "prompt", cfg.Prompt.Style, err)
	}
	closeFn := func() {}
	if closer, ok := asker.(io.Closer); ok {
		closeFn = func() { _ = closer.Close() }
	}
	return asker, closeFn, nil
}

// logScriptedAnswers reports how a replay file covered the run. Values the
// file had no answer for kept their original text.
func logScriptedAnswers(logger *slog.Logger, path string, scripted *prompt.ScriptedPrompter, rec *prompt.RecordingPrompter) {
	var unanswered []string
	for _, ex := range rec.Exchanges() {
		if ex.Err == nil && ex.Answer == "" {
			unanswered = append(unanswered, ex.Question.Value)
		}
	}
	logger.Info("scripted answers used",
		logging.String("path", path),
		logging.Int("asked", scripted.Asked()),
		logging.Int("unanswered", len(unanswered)),
	)
	logger.Debug("scripted values asked", logging.String("values", strings.Join(rec.Values(), ", ")))
	if len(unanswered) > 0 {
		logging.WarnWithContext(logger, "values without a scripted answer kept unchanged", "scripted_unanswered",
			logging.String("values", strings.Join(unanswered, ", ")),
			logging.String(logging.FieldErrorHint, "add the values to the answers file"),
		)
	}
}

func startWatch(ctx context.Context, opts runOptions, cfg *config.Config, store *vocab.Store, logger *slog.Logger) (func(), error) {
	if !opts.watch {
		return func() {}, nil
	}
	w, err := watch.New(opts.importPath, store, logger, watch.Options{LockTimeout: cfg.LockTimeout()})
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "run", "watch", opts.importPath, err)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(watchCtx)
	}()
	return func() {
		cancel()
		<-done
	}, nil
}

// exportMapping writes the store after a successful run, and after a failed
// one when answers were learned, so no operator input is lost.
func exportMapping(ctx context.Context, path string, store *vocab.Store, opts snapshot.Options, runErr error, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	learned := store.Learned()
	if runErr != nil && len(learned) == 0 {
		return nil
	}
	// An interrupted run still saves what the operator answered.
	if err := snapshot.Save(context.WithoutCancel(ctx), path, store.Snapshot(), opts); err != nil {
		return err
	}
	logger.Info("mapping exported",
		logging.String("path", path),
		logging.Int("keys", store.Len()),
		logging.Int("learned", len(learned)),
		logging.Bool("partial", runErr != nil),
	)
	return nil
}

func printSummary(out io.Writer, store *vocab.Store, result pipeline.Result) {
	colorize := shouldColorize(out)
	writeSection(out, "mapping", mappingTable(report.Mapping(store.Snapshot(), store.Learned())), colorize)
	writeSection(out, "percentages", percentageTable(report.Percentages(result.Counts, result.Total), result.Total), colorize)
}
