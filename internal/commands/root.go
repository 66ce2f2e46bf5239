// Package commands implements the fintrack operator CLI.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dafibh/fintrack/fintrack-backend/internal/service"
)

// Services are the application services a command runs against
type Services struct {
	Import *service.ImportService
	Stats  *service.StatsService
	Report *service.ReportService
	Close  func()
}

// Backend connects commands to the database
type Backend struct {
	Migrate func(ctx context.Context) error
	Open    func(ctx context.Context) (*Services, error)
}

// NewRootCommand creates the root CLI command backed by the configured database
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithBackend(defaultBackend())
}

// NewRootCommandWithBackend creates the root CLI command with all subcommands registered
func NewRootCommandWithBackend(backend Backend) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fintrack",
		Short: "Import, analyze and report personal finance transactions",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMigrateCommand(backend))
	rootCmd.AddCommand(newImportCommand(backend))
	rootCmd.AddCommand(newStatsCommand(backend))
	rootCmd.AddCommand(newReportCommand(backend))

	return rootCmd
}
