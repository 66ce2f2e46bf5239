package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
)

// periodFlags are the owner and date range shared by read commands
type periodFlags struct {
	owner string
	start string
	end   string
}

func (f *periodFlags) register(cmd *cobra.Command, rangeRequired bool) {
	cmd.Flags().StringVar(&f.owner, "owner", "", "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&f.start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, YYYY-MM-DD")
	if rangeRequired {
		_ = cmd.MarkFlagRequired("start")
		_ = cmd.MarkFlagRequired("end")
	}
}

func (f *periodFlags) ownerID() (uuid.UUID, error) {
	id, err := uuid.Parse(f.owner)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --owner: %w", err)
	}
	return id, nil
}

// dateRange returns nil when neither bound is set
func (f *periodFlags) dateRange() (*domain.DateRange, error) {
	if f.start == "" && f.end == "" {
		return nil, nil
	}
	r, err := domain.ParseDateRange(f.start, f.end)
	if err != nil {
		return nil, fmt.Errorf("invalid --start/--end: %w", err)
	}
	return &r, nil
}

func newStatsCommand(backend Backend) *cobra.Command {
	var flags periodFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print transaction statistics for an owner",
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

			services, err := backend.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close()

			stats, err := services.Stats.GetStats(cmd.Context(), ownerID, dateRange)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "average income:  %s\n", stats.AverageIncome.StringFixed(2))
			fmt.Fprintf(out, "average expense: %s\n", stats.AverageExpense.StringFixed(2))
			fmt.Fprintf(out, "median:          %s\n", stats.MedianAmount.StringFixed(2))
			fmt.Fprintf(out, "mode:            %s\n", joinAmounts(stats.ModeAmount))
			fmt.Fprintf(out, "mode income:     %s\n", joinAmounts(stats.ModeIncome))
			fmt.Fprintf(out, "mode expense:    %s\n", joinAmounts(stats.ModeExpense))
			return nil
		},
	}

	flags.register(cmd, false)
	return cmd
}

func joinAmounts(values []decimal.Decimal) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.StringFixed(2)
	}
	return strings.Join(parts, ", ")
}
