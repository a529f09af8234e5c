package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ghalamif/ScanFlow/internal/adapters/observability"
	"github.com/ghalamif/ScanFlow/pkg/scanflow"
)

type ScanOptions struct {
	Value string
}

// NewScanCommand runs one attempt: a camera scan, or a manual entry when
// --value is set.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:           "scan",
		Short:         "Capture one code (or submit --value manually) and dispatch it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Value, "value", "", "dispatch this value as a manual entry instead of scanning")
	return cmd
}

func runScan(cmd *cobra.Command, rootOpts *RootOptions, opts *ScanOptions) error {
	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := scanflow.LoadConfig(rootOpts.ConfigPath)
	if err != nil {
		_ = out.Error(err)
		return err
	}

	// One-shot runs expose no metrics endpoint.
	rt, err := scanflow.NewRuntime(cfg,
		scanflow.WithObservability(observability.NewPromObsWith(prometheus.NewRegistry())))
	if err != nil {
		_ = out.Error(err)
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var outcome scanflow.Outcome
	if cmd.Flags().Changed("value") {
		outcome, err = rt.Manual(ctx, opts.Value)
	} else {
		outcome, err = rt.Scan(ctx)
	}
	if err != nil {
		_ = out.Error(err)
		return err
	}

	if err := out.Success(outcome, func(w io.Writer) { printOutcome(w, outcome) }); err != nil {
		return err
	}
	if !outcome.OK() {
		return fmt.Errorf("%w: %s", scanflow.ErrSinkDeliveryFailed, outcome.Status)
	}
	return nil
}

func printOutcome(w io.Writer, o scanflow.Outcome) {
	fmt.Fprintf(w, "%s  %s  %s\n", o.Record.CapturedAt.Format(time.RFC3339), o.Record.Symbology, o.Record.Value)
	for _, r := range o.Results {
		mark := "ok"
		if !r.Success {
			mark = "FAILED: " + r.ErrorDetail
		}
		crit := ""
		if r.Critical {
			crit = " (critical)"
		}
		fmt.Fprintf(w, "  %s%s %s [%s]\n", r.SinkName, crit, mark, r.Latency.Truncate(time.Millisecond))
	}
	fmt.Fprintf(w, "status: %s\n", o.Status)
}
