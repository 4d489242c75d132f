package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkarhu/ferry/internal/config"
	"github.com/pkarhu/ferry/internal/engine"
	"github.com/pkarhu/ferry/internal/event"
	"github.com/pkarhu/ferry/internal/stats"
	"github.com/pkarhu/ferry/internal/ui"
	"github.com/pkarhu/ferry/internal/xfer"
)

var version = "dev"

func main() {
	os.Exit(run())
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: main CLI entry point orchestrates all flag parsing and mode selection
func run() int {
	var (
		recursive    bool
		jobs         int
		limitStr     string
		bwLimitStr   string
		noFastpath   bool
		preserveFlag bool
		fsyncFlag    bool
		verifyFlag   bool
		excludes     []string
		includes     []string
		progressFlag bool
		noProgress   bool
		quiet        bool
		verbose      bool
		showVersion  bool
		logFile      string
	)

	root := &cobra.Command{
		Use:   "ferry [flags] <source>... <destination>",
		Short: "Tiered local file copy with kernel fast paths",
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "ferry %s\n", version)
				return nil
			}

			sources := args[:len(args)-1]
			dst := args[len(args)-1]

			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}

			// Config file values fill in only the flags the user left alone.
			flags := cmd.Flags()
			setBool := func(name string, from *bool, to *bool) {
				if from != nil && !flags.Changed(name) {
					*to = *from
				}
			}
			setBool("verify", cfg.Defaults.Verify, &verifyFlag)
			setBool("preserve", cfg.Defaults.Preserve, &preserveFlag)
			setBool("fsync", cfg.Defaults.Fsync, &fsyncFlag)
			if cfg.Defaults.Jobs != nil && !flags.Changed("jobs") {
				jobs = *cfg.Defaults.Jobs
			}
			if cfg.Defaults.Progress != nil && !flags.Changed("no-progress") {
				noProgress = !*cfg.Defaults.Progress
			}
			if cfg.Defaults.BWLimit != nil && !flags.Changed("bwlimit") {
				bwLimitStr = *cfg.Defaults.BWLimit
			}

			var limit int64
			if limitStr != "" {
				limit, err = config.ParseSize(limitStr)
				if err != nil {
					return fmt.Errorf("invalid --limit: %w", err)
				}
			}
			var bwLimit int64
			if bwLimitStr != "" {
				bwLimit, err = config.ParseSize(bwLimitStr)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			if noFastpath {
				xfer.SetFastPaths(false)
			}

			level := slog.LevelWarn
			switch {
			case verbose:
				level = slog.LevelDebug
			case !quiet:
				level = slog.LevelInfo
			}
			text := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			var handler slog.Handler = text
			if logFile != "" {
				logf, cerr := os.Create(logFile)
				if cerr != nil {
					return fmt.Errorf("open log file: %w", cerr)
				}
				defer logf.Close()
				jsonh := slog.NewJSONHandler(logf, &slog.HandlerOptions{Level: slog.LevelDebug})
				handler = ui.NewMultiHandler(text, jsonh)
			}
			slog.SetDefault(slog.New(handler))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// With --log every event is logged as a structured record on
			// its way to the presenter.
			feed := (<-chan event.Event)(events)
			if logFile != "" {
				relay := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						attrs := []slog.Attr{
							slog.String("type", ev.Type.String()),
							slog.String("path", ev.Path),
							slog.Int64("size", ev.Size),
						}
						if ev.Method != "" {
							attrs = append(attrs, slog.String("method", ev.Method))
						}
						if ev.Error != nil {
							attrs = append(attrs, slog.String("error", ev.Error.Error()))
						}
						slog.LogAttrs(context.Background(), slog.LevelInfo, "ferry.event", attrs...)
						relay <- ev
					}
					close(relay)
				}()
				feed = relay
			}

			// When streaming to stdout the file feed moves to stderr so it
			// cannot mix with the payload.
			fileOut := os.Stdout
			if dst == "-" {
				fileOut = os.Stderr
			}

			isTTY := ui.IsTTY(os.Stderr.Fd())
			presenter := ui.NewPresenter(ui.Config{
				Writer:     fileOut,
				ErrWriter:  os.Stderr,
				Stats:      collector,
				DstRoot:    dst,
				Width:      ui.TermWidth(os.Stderr.Fd()),
				IsTTY:      isTTY || progressFlag,
				Quiet:      quiet,
				Verbose:    verbose,
				NoProgress: noProgress,
			})

			runCfg := engine.Config{
				Sources:   sources,
				Dst:       dst,
				Jobs:      jobs,
				Limit:     limit,
				BWLimit:   bwLimit,
				Recursive: recursive,
				Preserve:  preserveFlag,
				Fsync:     fsyncFlag,
				Verify:    verifyFlag,
				Excludes:  excludes,
				Includes:  includes,
				Events:    events,
				Stats:     collector,
			}

			slog.Debug("starting copy",
				"sources", sources,
				"dst", dst,
				"jobs", jobs,
				"recursive", recursive,
				"preserve", preserveFlag,
				"verify", verifyFlag,
				"bwlimit", bwLimit,
			)

			// Presenter drains in the background while the engine runs here.
			var uiErr error
			var uiWG sync.WaitGroup
			uiWG.Add(1)
			go func() {
				defer uiWG.Done()
				uiErr = presenter.Run(feed)
			}()

			result := engine.Run(ctx, runCfg)
			stop()
			close(events)
			uiWG.Wait()
			if uiErr != nil {
				fmt.Fprintf(os.Stderr, "presenter: %v\n", uiErr)
			}

			if !quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if result.Err != nil {
				slog.Error("copy failed", "error", result.Err)
				if result.Stats.FilesCopied > 0 {
					return &exitError{code: 1} // partial
				}
				return &exitError{code: 2}
			}
			if result.Stats.FilesFailed > 0 || result.Stats.FilesVerifyFailed > 0 {
				return &exitError{code: 1}
			}

			return nil
		},
	}

	fl := root.Flags()
	fl.BoolVar(&showVersion, "version", false, "print version and exit")

	fl.BoolVarP(&recursive, "recursive", "r", false, "recurse into source directories")
	fl.IntVarP(&jobs, "jobs", "j", 0, "parallel copy workers (default: min(NumCPU, 8))")
	fl.StringVar(&limitStr, "limit", "", "stop each source after SIZE bytes (e.g. 10M, 1G)")
	fl.StringVar(&bwLimitStr, "bwlimit", "", "cap the aggregate read rate (e.g. 100M, 1G)")
	fl.BoolVar(&noFastpath, "no-fastpath", false, "always copy through userspace buffers")
	fl.BoolVarP(&preserveFlag, "preserve", "p", false, "carry mode, ownership and timestamps over")
	fl.BoolVar(&fsyncFlag, "fsync", false, "flush file data before the final rename")
	fl.BoolVar(&verifyFlag, "verify", false, "re-read both sides and compare BLAKE3 digests")
	fl.StringArrayVar(&excludes, "exclude", nil, "skip walked entries matching PATTERN (repeatable)")
	fl.StringArrayVar(&includes, "include", nil, "keep walked entries matching PATTERN even when excluded (repeatable)")
	fl.BoolVar(&progressFlag, "progress", false, "draw the progress bar even without a terminal")
	fl.BoolVar(&noProgress, "no-progress", false, "disable progress display")
	fl.BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	fl.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	fl.StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	root.AddCommand(docsCmd)

	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
