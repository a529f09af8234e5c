package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ghalamif/ScanFlow/pkg/scanflow"
)

type validateResult struct {
	Config string   `json:"config"`
	Sinks  []string `json:"sinks"`
}

// NewValidateCommand loads and validates a config file without starting anything.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate",
		Short:         "Load and validate a config file without starting the runtime",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			cfg, err := scanflow.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				_ = out.Error(err)
				return err
			}

			res := validateResult{Config: rootOpts.ConfigPath}
			for _, s := range cfg.Sinks {
				res.Sinks = append(res.Sinks, fmt.Sprintf("%s (%s)", s.Name, s.Kind))
			}
			return out.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "config %s looks good\n", res.Config)
				for _, s := range res.Sinks {
					fmt.Fprintf(w, "  sink %s\n", s)
				}
			})
		},
	}
}
