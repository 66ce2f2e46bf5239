package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/report"
)

func newReportCommand(backend Backend) *cobra.Command {
	var flags periodFlags
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a PDF report for an owner and period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := flags.ownerID()
			if err != nil {
				return err
			}
			dateRange, err := flags.dateRange()
			if err != nil {
				return err
			}
			if dateRange == nil {
				return domain.ErrDateRangeRequired
			}

			services, err := backend.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close()

			data, err := services.Report.GenerateReport(cmd.Context(), ownerID, *dateRange)
			if err != nil {
				return err
			}

			if out == "" {
				out = report.Filename(*dateRange)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVar(&out, "out", "", "output path (default report_<start>_<end>.pdf)")

	return cmd
}
