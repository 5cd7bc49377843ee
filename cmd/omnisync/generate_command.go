package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"omnisync/internal/logging"
	"omnisync/internal/observe"
	"omnisync/internal/pipeline"
	"omnisync/internal/preflight"
	"omnisync/internal/runstore"
	"omnisync/internal/services"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var videoPath string
	var audioPath string
	var outputPath string
	var fps float64
	var showMetrics bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Re-synthesize the mouth region of a video to match an audio track",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fps") {
				cfg.Output.FPS = fps
			}

			if !skipPreflight {
				if failures := preflight.Failures(preflight.RunAll(cmd.Context(), cfg)); len(failures) > 0 {
					return services.Wrap(services.ErrConfiguration, "generate", "preflight", preflight.Summary(failures), nil)
				}
			}

			logger, closeLog, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = closeLog() }()

			var collector *observe.Collector
			opts := pipeline.Options{}
			if showMetrics || cfg.Metrics.Enabled {
				collector, err = observe.NewCollector()
				if err != nil {
					return fmt.Errorf("init metrics: %w", err)
				}
				defer func() { _ = collector.Shutdown(context.Background()) }()
				opts.Metrics = collector.Metrics
			}

			gen, closeGen, err := pipeline.New(cfg, logger, opts)
			if err != nil {
				return err
			}
			defer func() { _ = closeGen() }()

			report, runErr := gen.Generate(cmd.Context(), pipeline.Request{
				VideoPath:  strings.TrimSpace(videoPath),
				AudioPath:  strings.TrimSpace(audioPath),
				OutputPath: strings.TrimSpace(outputPath),
			})
			out := cmd.OutOrStdout()
			printReport(out, report)
			if collector != nil {
				snap, err := collector.Collect(context.Background())
				if err != nil {
					logger.Warn("metrics collection failed", logging.Error(err))
				} else {
					printMetrics(out, snap)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&videoPath, "video", "", "Source video file")
	cmd.Flags().StringVar(&audioPath, "audio", "", "Driving audio file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination video file")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Output frame rate (0 keeps the source rate)")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print frame and latency metrics after the run")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory, binary and service checks")
	return cmd
}

func printReport(out io.Writer, report *pipeline.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(out, "Run:      %s\n", report.RunID)
	fmt.Fprintf(out, "Status:   %s\n", statusLabel(report.Status))
	if report.Summary.Frames > 0 {
		fmt.Fprintf(out, "Frames:   %d (synthesized %d, passthrough %d)\n",
			report.Summary.Frames, report.Summary.Synthesized, report.Summary.Passthrough)
		fmt.Fprintf(out, "FPS:      %s\n", strconv.FormatFloat(report.FPS, 'f', -1, 64))
	}
	if report.FinalPath != "" {
		fmt.Fprintf(out, "Output:   %s\n", report.FinalPath)
	} else if report.OutputPath != "" && report.Status == runstore.StatusCompleted {
		fmt.Fprintf(out, "Output:   %s\n", report.OutputPath)
	}
	fmt.Fprintf(out, "Elapsed:  %s\n", report.Elapsed.Round(time.Millisecond))
}

func printMetrics(out io.Writer, snap observe.Snapshot) {
	rows := make([][]string, 0, len(snap.Frames))
	for _, key := range snap.FrameKeys() {
		rows = append(rows, []string{key, strconv.FormatInt(snap.Frames[key], 10)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Frames", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
	latency := [][]string{
		latencyRow("detect", snap.Detect),
		latencyRow("infer", snap.Infer),
		latencyRow("run", snap.Run),
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Latency", "Count", "Mean (s)", "Max (s)"},
		latency,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
}

func latencyRow(name string, l observe.Latency) []string {
	return []string{
		name,
		strconv.FormatUint(l.Count, 10),
		strconv.FormatFloat(l.Mean(), 'f', 4, 64),
		strconv.FormatFloat(l.Max, 'f', 4, 64),
	}
}
