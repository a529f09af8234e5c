package cli

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

type StatsOptions struct {
	URL      string
	Interval time.Duration
	Once     bool
}

// statsMetrics are the series printed by the stats command, in order.
var statsMetrics = []string{
	"scanflow_scans_total",
	"scanflow_manual_entries_total",
	"scanflow_sink_failures_total",
	"scanflow_capture_failures_total",
	"scanflow_history_length",
	"scanflow_session_active",
}

// NewStatsCommand polls the Prometheus endpoint and prints live counters.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{}

	cmd := &cobra.Command{
		Use:          "stats",
		Short:        "Poll the Prometheus metrics endpoint and print live counters",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if opts.Once {
				return printMetricsSnapshot(w, opts.URL)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(opts.Interval)
			defer ticker.Stop()

			fmt.Fprintf(w, "Streaming metrics from %s (Ctrl+C to stop)\n", opts.URL)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := printMetricsSnapshot(w, opts.URL); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "stats error: %v\n", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 2*time.Second, "refresh interval")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "print one snapshot and exit")
	return cmd
}

func printMetricsSnapshot(w io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := parseMetrics(resp.Body)
	if err != nil {
		return err
	}

	parts := make([]string, 0, len(statsMetrics))
	for _, name := range statsMetrics {
		parts = append(parts, fmt.Sprintf("%s=%g", strings.TrimPrefix(name, "scanflow_"), values[name]))
	}
	fmt.Fprintf(w, "[%s] %s\n", time.Now().Format(time.RFC3339), strings.Join(parts, " "))
	return nil
}

func parseMetrics(r io.Reader) (map[string]float64, error) {
	values := make(map[string]float64, len(statsMetrics))
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statsMetrics {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					values[key] = value
				}
			}
		}
	}
	return values, scanner.Err()
}
